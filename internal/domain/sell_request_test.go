package domain

import "testing"

func TestToCarCopiesRequestFields(t *testing.T) {
	price := int64(550000)
	mileage := 42000
	fuel := FuelDiesel
	color := "white"
	cond := SellConditionSecond
	info := "single owner"
	req := &SellRequest{
		ID:             "req-1",
		BrandID:        "b1",
		ModelID:        "m1",
		Year:           2020,
		ExpectedPrice:  &price,
		Mileage:        &mileage,
		FuelType:       &fuel,
		Color:          &color,
		Condition:      &cond,
		AdditionalInfo: &info,
		Images:         []string{"sell/a.jpg", "sell/b.jpg"},
		Status:         SellRequestPending,
	}

	car := req.ToCar("admin-1")

	if car.BrandID != "b1" || car.ModelID != "m1" || car.Year != 2020 || car.Price != price {
		t.Fatalf("core fields not copied: %+v", car)
	}
	if car.AddedBy != "admin-1" || !car.IsApproved || !car.IsEnabled || car.IsSold || car.IsFeatured {
		t.Fatalf("unexpected flags: %+v", car)
	}
	if car.Condition != CarConditionUsed {
		t.Fatalf("ownership grade should map to used, got %s", car.Condition)
	}
	if car.Description == nil || *car.Description != info {
		t.Fatal("additional info should become the description")
	}
	if car.SellRequestID == nil || *car.SellRequestID != "req-1" {
		t.Fatal("missing derivation reference")
	}

	req.ID = "changed"
	req.Images[0] = "changed.jpg"
	if *car.SellRequestID != "req-1" || car.Images[0] != "sell/a.jpg" {
		t.Fatal("car shares mutable state with the request")
	}
}

func TestToCarDefaults(t *testing.T) {
	newCond := SellConditionNew
	car := (&SellRequest{ID: "r", Condition: &newCond}).ToCar("a")
	if car.Price != 0 || car.Condition != CarConditionNew {
		t.Fatalf("unexpected defaults: price=%d condition=%s", car.Price, car.Condition)
	}
	if car := (&SellRequest{ID: "r"}).ToCar("a"); car.Condition != CarConditionUsed {
		t.Fatalf("missing condition should default to used, got %s", car.Condition)
	}
}

func TestStatusTerminal(t *testing.T) {
	if SellRequestPending.IsTerminal() {
		t.Fatal("pending is not terminal")
	}
	if !SellRequestApproved.IsTerminal() || !SellRequestRejected.IsTerminal() {
		t.Fatal("approved and rejected are terminal")
	}
}
