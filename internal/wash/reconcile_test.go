package wash_test

import (
	"reflect"
	"testing"

	"github.com/washtrack/washtrack/internal/wash"
	"github.com/washtrack/washtrack/pkg/models"
)

func pair(beforeKey, afterKey string) []models.WashImage {
	return []models.WashImage{
		{ID: 1, WashRecordID: 7, ImageType: models.ImageBefore, ImageKey: beforeKey},
		{ID: 2, WashRecordID: 7, ImageType: models.ImageAfter, ImageKey: afterKey},
	}
}

func TestPlanImages(t *testing.T) {
	tests := []struct {
		name       string
		current    []models.WashImage
		beforeKey  string
		afterKey   string
		wantDelete []string
		wantCreate []models.WashImage
	}{
		{
			name:      "NoChange",
			current:   pair("b1", "a1"),
			beforeKey: "b1",
			afterKey:  "a1",
		},
		{
			name:       "SwapBeforeOnly",
			current:    pair("b1", "a1"),
			beforeKey:  "b2",
			afterKey:   "a1",
			wantDelete: []string{"b1"},
			wantCreate: []models.WashImage{{ImageType: models.ImageBefore, ImageKey: "b2"}},
		},
		{
			name:       "SwapAfterOnly",
			current:    pair("b1", "a1"),
			beforeKey:  "b1",
			afterKey:   "a2",
			wantDelete: []string{"a1"},
			wantCreate: []models.WashImage{{ImageType: models.ImageAfter, ImageKey: "a2"}},
		},
		{
			name:       "SwapBothSlots",
			current:    pair("b1", "a1"),
			beforeKey:  "b2",
			afterKey:   "a2",
			wantDelete: []string{"b1", "a1"},
			wantCreate: []models.WashImage{
				{ImageType: models.ImageBefore, ImageKey: "b2"},
				{ImageType: models.ImageAfter, ImageKey: "a2"},
			},
		},
		{
			name:      "MissingSlotOnlyCreates",
			current:   []models.WashImage{{ID: 1, ImageType: models.ImageBefore, ImageKey: "b1"}},
			beforeKey: "b1",
			afterKey:  "a1",
			wantCreate: []models.WashImage{
				{ImageType: models.ImageAfter, ImageKey: "a1"},
			},
		},
		{
			name:      "EmptyCurrentCreatesBoth",
			beforeKey: "b1",
			afterKey:  "a1",
			wantCreate: []models.WashImage{
				{ImageType: models.ImageBefore, ImageKey: "b1"},
				{ImageType: models.ImageAfter, ImageKey: "a1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := wash.PlanImages(tt.current, tt.beforeKey, tt.afterKey)
			if !reflect.DeepEqual(plan.DeleteKeys, tt.wantDelete) {
				t.Fatalf("delete keys: got %v want %v", plan.DeleteKeys, tt.wantDelete)
			}
			if !reflect.DeepEqual(plan.Create, tt.wantCreate) {
				t.Fatalf("create rows: got %+v want %+v", plan.Create, tt.wantCreate)
			}
			wantEmpty := len(tt.wantDelete) == 0 && len(tt.wantCreate) == 0
			if plan.Empty() != wantEmpty {
				t.Fatalf("Empty(): got %v want %v", plan.Empty(), wantEmpty)
			}
		})
	}
}

func TestPlanImages_Idempotent(t *testing.T) {
	// applying a plan and re-diffing against the same keys yields nothing
	plan := wash.PlanImages(pair("b1", "a1"), "b2", "a2")
	if plan.Empty() {
		t.Fatalf("expected work on first diff")
	}

	applied := pair("b2", "a2")
	again := wash.PlanImages(applied, "b2", "a2")
	if !again.Empty() {
		t.Fatalf("expected no work on replay, got %+v", again)
	}
}

func TestNewImagePair(t *testing.T) {
	imgs := wash.NewImagePair("bk", "ak")
	if len(imgs) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(imgs))
	}
	if imgs[0].ImageType != models.ImageBefore || imgs[0].ImageKey != "bk" {
		t.Fatalf("unexpected before row: %+v", imgs[0])
	}
	if imgs[1].ImageType != models.ImageAfter || imgs[1].ImageKey != "ak" {
		t.Fatalf("unexpected after row: %+v", imgs[1])
	}
}
