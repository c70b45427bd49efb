package service

import (
	"context"
	"testing"

	"github.com/spec-kit/car-marketplace/internal/config"
)

func TestSetBrandEnabledCascadesToCars(t *testing.T) {
	f := newFixture(t, config.DuplicateAllow)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.cars.Create(ctx, f.admin.ID, CarInput{BrandID: f.brand.ID, ModelID: f.model.ID, Year: 2019, Price: 1000}, []string{"cars/a.jpg"}); err != nil {
			t.Fatalf("create car: %v", err)
		}
	}

	brand, affected, err := f.catalog.SetBrandEnabled(ctx, f.brand.ID, false)
	if err != nil {
		t.Fatalf("disable brand: %v", err)
	}
	if brand.IsEnabled || affected != 2 {
		t.Fatalf("expected disabled brand and 2 cars, got enabled=%v affected=%d", brand.IsEnabled, affected)
	}
	public, err := f.cars.List(ctx, CarQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if public.Total != 0 {
		t.Fatalf("disabled brand cars still public: %d", public.Total)
	}

	if _, _, err := f.catalog.SetBrandEnabled(ctx, f.brand.ID, true); err != nil {
		t.Fatalf("enable brand: %v", err)
	}
	public, _ = f.cars.List(ctx, CarQuery{})
	if public.Total != 2 {
		t.Fatalf("expected cars visible again, got %d", public.Total)
	}

	_, _, err = f.catalog.SetBrandEnabled(ctx, "missing", true)
	assertCode(t, err, "NOT_FOUND", 404)
}

func TestModelRules(t *testing.T) {
	f := newFixture(t, config.DuplicateAllow)
	ctx := context.Background()

	_, err := f.catalog.CreateModel(ctx, f.brand.ID, " Corolla ")
	assertCode(t, err, "CONFLICT", 409)

	_, err = f.catalog.CreateModel(ctx, "missing", "Yaris")
	assertCode(t, err, "NOT_FOUND", 404)

	yaris, err := f.catalog.CreateModel(ctx, f.brand.ID, "Yaris")
	if err != nil {
		t.Fatalf("create model: %v", err)
	}
	renamed, err := f.catalog.RenameModel(ctx, yaris.ID, "Yaris Cross")
	if err != nil || renamed.Name != "Yaris Cross" {
		t.Fatalf("rename: %v %+v", err, renamed)
	}

	models, err := f.catalog.ListModels(ctx, f.brand.ID)
	if err != nil || len(models) != 2 {
		t.Fatalf("expected 2 models, got %d (%v)", len(models), err)
	}

	if _, err := f.catalog.ResolveModel(ctx, yaris.ID, "other-brand"); err == nil {
		t.Fatal("model resolved under a foreign brand")
	}
	if err := f.catalog.DeleteModel(ctx, yaris.ID); err != nil {
		t.Fatalf("delete unused model: %v", err)
	}
}

func TestDeleteBrandBlockedWhileReferenced(t *testing.T) {
	f := newFixture(t, config.DuplicateAllow)
	ctx := context.Background()
	logo := "brands/logo.png"

	brand, err := f.catalog.CreateBrand(ctx, BrandInput{Name: "Kia", Logo: &logo})
	if err != nil {
		t.Fatalf("create brand: %v", err)
	}
	model, err := f.catalog.CreateModel(ctx, brand.ID, "Rio")
	if err != nil {
		t.Fatalf("create model: %v", err)
	}
	car, err := f.cars.Create(ctx, f.admin.ID, CarInput{BrandID: brand.ID, ModelID: model.ID, Year: 2018}, nil)
	if err != nil {
		t.Fatalf("create car: %v", err)
	}

	assertCode(t, f.catalog.DeleteBrand(ctx, brand.ID), "CONFLICT", 409)
	assertCode(t, f.catalog.DeleteModel(ctx, model.ID), "CONFLICT", 409)

	if err := f.cars.Delete(ctx, car.ID); err != nil {
		t.Fatalf("delete car: %v", err)
	}
	if err := f.catalog.DeleteBrand(ctx, brand.ID); err != nil {
		t.Fatalf("delete brand: %v", err)
	}
	if _, err := f.catalog.ResolveModel(ctx, model.ID, brand.ID); err == nil {
		t.Fatal("model survived brand delete")
	}
	deleted := f.media.deletedRefs()
	if len(deleted) == 0 || deleted[len(deleted)-1] != logo {
		t.Fatalf("logo not deleted: %v", deleted)
	}
}

func TestUpdateBrandReplacesLogo(t *testing.T) {
	f := newFixture(t, config.DuplicateAllow)
	ctx := context.Background()
	oldLogo, newLogo := "brands/old.png", "brands/new.png"

	brand, err := f.catalog.CreateBrand(ctx, BrandInput{Name: "Mazda", Logo: &oldLogo})
	if err != nil {
		t.Fatalf("create brand: %v", err)
	}
	name := "Mazda Motors"
	updated, err := f.catalog.UpdateBrand(ctx, brand.ID, BrandUpdate{Name: &name, Logo: &newLogo})
	if err != nil {
		t.Fatalf("update brand: %v", err)
	}
	if updated.Name != name || updated.Logo == nil || *updated.Logo != newLogo {
		t.Fatalf("unexpected brand: %+v", updated)
	}
	if deleted := f.media.deletedRefs(); len(deleted) != 1 || deleted[0] != oldLogo {
		t.Fatalf("expected old logo deleted, got %v", deleted)
	}

	empty := " "
	another := "brands/another.png"
	_, err = f.catalog.UpdateBrand(ctx, brand.ID, BrandUpdate{Name: &empty, Logo: &another})
	assertCode(t, err, "VALIDATION_FAILED", 400)
	if deleted := f.media.deletedRefs(); deleted[len(deleted)-1] != another {
		t.Fatalf("rejected logo not cleaned up: %v", deleted)
	}
}

func TestListBrandsSortedByName(t *testing.T) {
	f := newFixture(t, config.DuplicateAllow)
	ctx := context.Background()
	for _, name := range []string{"Volvo", "Audi"} {
		if _, err := f.catalog.CreateBrand(ctx, BrandInput{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	page, err := f.catalog.ListBrands(ctx, PageQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var names []string
	for _, b := range page.Items {
		names = append(names, b.Name)
	}
	want := []string{"Audi", "Toyota", "Volvo"}
	if len(names) != len(want) {
		t.Fatalf("got %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}
