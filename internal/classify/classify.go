// Package classify derives semantic action tags from before/after entity
// snapshots. It is a pure function of its inputs — no I/O, no clock — and
// deterministic, so the read path can re-derive tags for historical rows
// that predate explicit tagging and always agree with the write path.
package classify

import (
	"bytes"
	"cmp"
	"encoding/json"
	"slices"

	"github.com/orderdesk/backoffice/internal/models"
)

// Classify derives the action tags describing the change between two
// snapshots. Rules:
//   - only after present: creation
//   - only before present: deletion
//   - both present and deep-equal: creation (historical rows had "before"
//     auto-populated from the just-created state; kept for compatibility)
//   - both present and different: per-variant field diffs, falling back to
//     the generic update tag when no specific diff fires.
//
// Multiple tags can co-occur; the result order is stable.
func Classify(before, after *models.Snapshot) []models.ActionTag {
	switch {
	case before == nil && after == nil:
		return nil
	case before == nil:
		return []models.ActionTag{models.CreateTag(after.EntityType)}
	case after == nil:
		return []models.ActionTag{models.DeleteTag(before.EntityType)}
	}

	if snapshotsEqual(before, after) {
		return []models.ActionTag{models.CreateTag(after.EntityType)}
	}

	var tags []models.ActionTag

	switch {
	case before.Department != nil && after.Department != nil:
		tags = diffDepartment(before.Department, after.Department)
	case before.User != nil && after.User != nil:
		tags = diffUser(before.User, after.User)
	case before.Product != nil && after.Product != nil:
		tags = diffProduct(before.Product, after.Product)
	case before.Order != nil && after.Order != nil:
		tags = diffOrder(before.Order, after.Order)
	case before.Booking != nil && after.Booking != nil:
		tags = diffBooking(before.Booking, after.Booking)
	case before.ServiceKit != nil && after.ServiceKit != nil:
		tags = diffServiceKit(before.ServiceKit, after.ServiceKit)
	}

	if len(tags) == 0 {
		tags = []models.ActionTag{models.UpdateTag(after.EntityType)}
	}

	return tags
}

// snapshotsEqual compares two snapshots by their canonical JSON encoding.
func snapshotsEqual(a, b *models.Snapshot) bool {
	aJSON, errA := json.Marshal(a)
	bJSON, errB := json.Marshal(b)

	if errA != nil || errB != nil {
		return false
	}

	return bytes.Equal(aJSON, bJSON)
}

func diffDepartment(before, after *models.DepartmentSnapshot) []models.ActionTag {
	var tags []models.ActionTag

	if before.Name != after.Name {
		tags = append(tags, models.TagChangeName)
	}

	if before.Status != after.Status {
		tags = append(tags, models.TagChangeStatus)
	}

	if !idSetsEqual(before.CategoryIDs, after.CategoryIDs) {
		tags = append(tags, models.TagChangeCategories)
	}

	added, removed := memberDiff(userIDs(before.Users), userIDs(after.Users))
	if len(added) > 0 {
		tags = append(tags, models.TagAddEmployees)
	}

	if len(removed) > 0 {
		tags = append(tags, models.TagRemoveEmployees)
	}

	return tags
}

func diffUser(before, after *models.UserSnapshot) []models.ActionTag {
	var tags []models.ActionTag

	if before.FirstName != after.FirstName || before.LastName != after.LastName {
		tags = append(tags, models.TagChangeName)
	}

	if before.Role != after.Role {
		tags = append(tags, models.TagChangeRole)
	}

	if before.Status != after.Status {
		tags = append(tags, models.TagChangeStatus)
	}

	if refID(before.Department) != refID(after.Department) {
		tags = append(tags, models.TagChangeDepartment)
	}

	return tags
}

func diffProduct(before, after *models.ProductSnapshot) []models.ActionTag {
	var tags []models.ActionTag

	if before.Name != after.Name {
		tags = append(tags, models.TagChangeName)
	}

	if before.Price != after.Price {
		tags = append(tags, models.TagChangePrice)
	}

	if before.Status != after.Status {
		tags = append(tags, models.TagChangeStatus)
	}

	if categoryID(before.Category) != categoryID(after.Category) {
		tags = append(tags, models.TagChangeCategory)
	}

	if !filterValuesEqual(before.FilterValues, after.FilterValues) {
		tags = append(tags, models.TagChangeFilters)
	}

	return tags
}

func diffOrder(before, after *models.OrderSnapshot) []models.ActionTag {
	var tags []models.ActionTag

	if before.Status != after.Status {
		tags = append(tags, models.TagChangeStatus)
	}

	if userID(before.Client) != userID(after.Client) {
		tags = append(tags, models.TagChangeClient)
	}

	if userID(before.Manager) != userID(after.Manager) {
		tags = append(tags, models.TagChangeManager)
	}

	if !itemsEqual(before.Items, after.Items) {
		tags = append(tags, models.TagChangeItems)
	}

	return tags
}

func diffBooking(before, after *models.BookingSnapshot) []models.ActionTag {
	var tags []models.ActionTag

	if before.Status != after.Status {
		tags = append(tags, models.TagChangeStatus)
	}

	if !before.Date.Equal(after.Date) {
		tags = append(tags, models.TagChangeDate)
	}

	if userID(before.Client) != userID(after.Client) {
		tags = append(tags, models.TagChangeClient)
	}

	if userID(before.Manager) != userID(after.Manager) {
		tags = append(tags, models.TagChangeManager)
	}

	if kitID(before.ServiceKit) != kitID(after.ServiceKit) {
		tags = append(tags, models.TagChangeServiceKit)
	}

	return tags
}

func diffServiceKit(before, after *models.ServiceKitSnapshot) []models.ActionTag {
	var tags []models.ActionTag

	if before.Name != after.Name {
		tags = append(tags, models.TagChangeName)
	}

	if before.Address != after.Address {
		tags = append(tags, models.TagChangeAddress)
	}

	return tags
}

// memberDiff splits two membership id sets into added and removed ids.
func memberDiff(before, after []int64) (added, removed []int64) {
	beforeSet := make(map[int64]struct{}, len(before))
	for _, id := range before {
		beforeSet[id] = struct{}{}
	}

	afterSet := make(map[int64]struct{}, len(after))
	for _, id := range after {
		afterSet[id] = struct{}{}
	}

	for _, id := range after {
		if _, ok := beforeSet[id]; !ok {
			added = append(added, id)
		}
	}

	for _, id := range before {
		if _, ok := afterSet[id]; !ok {
			removed = append(removed, id)
		}
	}

	slices.Sort(added)
	slices.Sort(removed)

	return added, removed
}

// MemberDiff exposes the added/removed split for callers that need the
// exact sets (e.g. propagation summaries), with the same semantics the
// classifier uses.
func MemberDiff(before, after []int64) (added, removed []int64) {
	return memberDiff(before, after)
}

// idSetsEqual compares two id slices as sorted sets.
func idSetsEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}

	as := append([]int64(nil), a...)
	bs := append([]int64(nil), b...)
	slices.Sort(as)
	slices.Sort(bs)

	return slices.Equal(as, bs)
}

func filterValuesEqual(a, b []models.FilterValue) bool {
	if len(a) != len(b) {
		return false
	}

	as := append([]models.FilterValue(nil), a...)
	bs := append([]models.FilterValue(nil), b...)

	less := func(x, y models.FilterValue) int {
		if c := cmp.Compare(x.FilterID, y.FilterID); c != 0 {
			return c
		}

		return cmp.Compare(x.Value, y.Value)
	}
	slices.SortFunc(as, less)
	slices.SortFunc(bs, less)

	return slices.Equal(as, bs)
}

func itemsEqual(a, b []models.OrderItem) bool {
	if len(a) != len(b) {
		return false
	}

	as := append([]models.OrderItem(nil), a...)
	bs := append([]models.OrderItem(nil), b...)

	less := func(x, y models.OrderItem) int { return cmp.Compare(x.ProductID, y.ProductID) }
	slices.SortFunc(as, less)
	slices.SortFunc(bs, less)

	return slices.Equal(as, bs)
}

func userIDs(users []models.UserRef) []int64 {
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	return ids
}

func refID(r *models.DepartmentRef) int64 {
	if r == nil {
		return 0
	}

	return r.ID
}

func userID(r *models.UserRef) int64 {
	if r == nil {
		return 0
	}

	return r.ID
}

func categoryID(r *models.CategoryRef) int64 {
	if r == nil {
		return 0
	}

	return r.ID
}

func kitID(r *models.ServiceKitRef) int64 {
	if r == nil {
		return 0
	}

	return r.ID
}
