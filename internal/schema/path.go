package schema

// Child returns the path of the named member below parent.
func Child(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// Items returns the path of the items of the array at parent.
func Items(parent string) string {
	return parent + "[*]"
}

// Values returns the path of the values of the map at parent.
func Values(parent string) string {
	return parent + "{*}"
}

// VariantPath returns the path of a union variant at parent.
func VariantPath(parent, tag string) string {
	return parent + "<" + tag + ">"
}
