package domain

// Profile is a named set of mods applied together to one instance
type Profile struct {
	Name     string   // Unique within the instance
	Instance string   // Owning instance name
	Mods     []string // Natural-sorted mod names
}

// HasMod reports whether name is part of the profile
func (p *Profile) HasMod(name string) bool {
	for _, m := range p.Mods {
		if m == name {
			return true
		}
	}
	return false
}
