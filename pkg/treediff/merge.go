package treediff

import "github.com/sourcelens/semdiff/pkg/resultmodel"

// identityKey identifies "the same" node across per-profile change
// trees by (kind, name, new_location). Signature is not part of the
// key: two changes that agree on those three fields are coalesced into
// one even when their signatures differ.
type identityKey struct {
	kind        string
	name        string
	newLocation string
}

func keyOf(c *resultmodel.Change) identityKey {
	var loc string
	if c.NewLocation != nil {
		loc = c.NewLocation.String()
	}

	return identityKey{kind: c.Kind.String(), name: c.Name, newLocation: loc}
}

// MergeProfiles coalesces the per-profile change trees produced by
// running Diff once per configured build profile. Changes describing
// the same node are merged into one whose ApplicableProfiles is the
// union of the profiles it appeared in.
func MergeProfiles(perProfile map[string][]*resultmodel.Change) []*resultmodel.Change {
	if len(perProfile) == 0 {
		return nil
	}

	if len(perProfile) == 1 {
		for _, changes := range perProfile {
			return changes
		}
	}

	merged := make(map[identityKey]*resultmodel.Change)
	order := make([]identityKey, 0)

	for profile, changes := range perProfile {
		for _, c := range changes {
			mergeInto(merged, &order, profile, c)
		}
	}

	out := make([]*resultmodel.Change, 0, len(order))
	for _, k := range order {
		out = append(out, merged[k])
	}

	sortByTreeOrder(out)

	return out
}

func mergeInto(merged map[identityKey]*resultmodel.Change, order *[]identityKey, profile string, c *resultmodel.Change) {
	k := keyOf(c)

	existing, ok := merged[k]
	if !ok {
		clone := cloneWithProfile(c, profile)
		merged[k] = clone
		*order = append(*order, k)

		return
	}

	for p := range c.ApplicableProfiles {
		if existing.ApplicableProfiles == nil {
			existing.ApplicableProfiles = make(map[string]struct{}, 1)
		}

		existing.ApplicableProfiles[p] = struct{}{}
	}

	if profile != "" {
		if existing.ApplicableProfiles == nil {
			existing.ApplicableProfiles = make(map[string]struct{}, 1)
		}

		existing.ApplicableProfiles[profile] = struct{}{}
	}

	mergeChildren(existing, c)
}

// mergeChildren merges c's children into existing's, matching by the
// same identity key, recursively.
func mergeChildren(existing, c *resultmodel.Change) {
	byKey := make(map[identityKey]*resultmodel.Change, len(existing.Children))
	for _, child := range existing.Children {
		byKey[keyOf(child)] = child
	}

	for _, child := range c.Children {
		k := keyOf(child)
		if dst, ok := byKey[k]; ok {
			mergeChildren(dst, child)

			for p := range child.ApplicableProfiles {
				if dst.ApplicableProfiles == nil {
					dst.ApplicableProfiles = make(map[string]struct{}, 1)
				}

				dst.ApplicableProfiles[p] = struct{}{}
			}

			continue
		}

		existing.Children = append(existing.Children, child)
		byKey[k] = child
	}

	sortByTreeOrder(existing.Children)
}

func cloneWithProfile(c *resultmodel.Change, profile string) *resultmodel.Change {
	b := resultmodel.NewChangeBuilder(c.Kind, c.Type, c.Name).
		WithVisibility(c.Visibility).
		WithWhitespaceIssues(c.WhitespaceIssues).
		WithImpact(c.Impact, c.Caveats...)

	if c.OldLocation != nil {
		b.WithOldLocation(*c.OldLocation)
	}

	if c.NewLocation != nil {
		b.WithNewLocation(*c.NewLocation)
	}

	if c.HasOldContent {
		b.WithOldContent(c.OldContent)
	}

	if c.HasNewContent {
		b.WithNewContent(c.NewContent)
	}

	for p := range c.ApplicableProfiles {
		b.WithProfile(p)
	}

	b.WithProfile(profile)

	for _, child := range c.Children {
		b.AddChild(child)
	}

	return b.Build()
}
