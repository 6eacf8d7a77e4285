package wash

import (
	"github.com/washtrack/washtrack/pkg/models"
)

// ImagePlan is the outcome of diffing a wash record's stored attachments
// against the keys submitted in an update. DeleteKeys are superseded
// storage keys (their rows go, and the objects are removed best-effort
// after the row changes commit); Create are the replacement rows.
type ImagePlan struct {
	DeleteKeys []string
	Create     []models.WashImage
}

// Empty reports whether the update touches no attachment.
func (p ImagePlan) Empty() bool {
	return len(p.DeleteKeys) == 0 && len(p.Create) == 0
}

// PlanImages diffs the two image slots independently. For a slot with an
// existing attachment whose key differs from the submitted one, the old
// key is marked for deletion and a replacement row is queued; a slot with
// no attachment only queues a creation. An unchanged slot is untouched.
func PlanImages(current []models.WashImage, beforeKey, afterKey string) ImagePlan {
	var plan ImagePlan
	planSlot(&plan, current, models.ImageBefore, beforeKey)
	planSlot(&plan, current, models.ImageAfter, afterKey)
	return plan
}

func planSlot(plan *ImagePlan, current []models.WashImage, slot models.ImageType, key string) {
	var existing *models.WashImage
	for i := range current {
		if current[i].ImageType == slot {
			existing = &current[i]
			break
		}
	}

	switch {
	case existing != nil && existing.ImageKey != key:
		plan.DeleteKeys = append(plan.DeleteKeys, existing.ImageKey)
		plan.Create = append(plan.Create, models.WashImage{ImageType: slot, ImageKey: key})
	case existing == nil:
		plan.Create = append(plan.Create, models.WashImage{ImageType: slot, ImageKey: key})
	}
}

// NewImagePair builds the two mandatory attachment rows for a fresh record.
func NewImagePair(beforeKey, afterKey string) []models.WashImage {
	return []models.WashImage{
		{ImageType: models.ImageBefore, ImageKey: beforeKey},
		{ImageType: models.ImageAfter, ImageKey: afterKey},
	}
}
