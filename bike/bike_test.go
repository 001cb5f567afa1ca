package bike

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestPatch_Decode(t *testing.T) {
	var patch Patch
	err := json.Unmarshal([]byte(`{"model":"Cargoville","needs_maintenance":true}`), &patch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if patch.Model == nil || *patch.Model != "Cargoville" {
		t.Errorf("expected model to be present")
	}
	if patch.NeedsMaintenance == nil || !*patch.NeedsMaintenance {
		t.Errorf("expected needs_maintenance to be present and true")
	}
	if patch.Electric != nil || patch.CurrentStationID != nil || patch.ManufacturedAt != nil {
		t.Errorf("absent fields must decode to nil: %+v", patch)
	}
}

func TestPatch_DecodeFalseIsPresent(t *testing.T) {
	var patch Patch
	err := json.Unmarshal([]byte(`{"electric":false}`), &patch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if patch.Electric == nil {
		t.Fatalf("explicit false must be present, not absent")
	}
	if *patch.Electric {
		t.Errorf("expected electric false")
	}
}

func TestPatch_Apply(t *testing.T) {
	stationID := int64(4)
	b := Bike{
		ID:               1,
		Model:            "Old",
		ManufacturedAt:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Electric:         false,
		CurrentStationID: &stationID,
	}

	model := "New"
	electric := true
	newStation := int64(7)
	Patch{Model: &model, Electric: &electric, CurrentStationID: &newStation}.Apply(&b)

	if b.Model != "New" || !b.Electric {
		t.Errorf("patch not applied: %+v", b)
	}
	if b.CurrentStationID == nil || *b.CurrentStationID != 7 {
		t.Errorf("expected current_station_id 7, got %v", b.CurrentStationID)
	}
	if !b.ManufacturedAt.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("absent fields must stay untouched")
	}
}

func TestPatch_ApplyCopiesStationID(t *testing.T) {
	var b Bike
	id := int64(4)
	Patch{CurrentStationID: &id}.Apply(&b)

	id = 9
	if *b.CurrentStationID != 4 {
		t.Errorf("patch must not alias the caller's pointer")
	}
}
