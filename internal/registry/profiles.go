package registry

// Resolve maps a profile identifier to its member services. Legacy ids
// are first translated through the alias table; an alias naming multiple
// canonical profiles yields the union of their members. Unknown ids
// resolve to an empty set, never an error: "0 services" is a valid,
// displayable state for callers.
func (r *Registry) Resolve(profileID string) []ServiceDescriptor {
	var members []ServiceDescriptor
	for _, canonical := range r.CanonicalIDs(profileID) {
		for _, name := range r.order {
			if r.services[name].Profile == canonical {
				members = append(members, r.services[name])
			}
		}
	}
	return members
}

// CanonicalIDs translates a profile id through the legacy alias table.
// Ids that are not aliases are returned unchanged: they are either
// already canonical or unknown, and unknown ids simply match nothing.
func (r *Registry) CanonicalIDs(profileID string) []string {
	if target, ok := r.aliases[profileID]; ok {
		return target.IDs()
	}
	return []string{profileID}
}

// IsLegacy reports whether the id is a legacy alias
func (r *Registry) IsLegacy(profileID string) bool {
	_, ok := r.aliases[profileID]
	return ok
}

// Profiles returns the distinct canonical profile ids present in the
// registry, in a stable order.
func (r *Registry) Profiles() []string {
	seen := map[string]bool{}
	var profiles []string
	for _, name := range r.order {
		profile := r.services[name].Profile
		if !seen[profile] {
			seen[profile] = true
			profiles = append(profiles, profile)
		}
	}
	return profiles
}
