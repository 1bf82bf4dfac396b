package testutil

// WithStandardRules adds the standard test dataset: names that sort
// differently naturally and lexically, two shared groups, one rule per
// selectable provider type and one without a provider.
func (b *Builder) WithStandardRules() *Builder {
	return b.
		WithRule("item2", Groups("core")).
		WithRule("item10", Provider("path_pattern", `{"pattern":"v(\\d+)","replacement":"$1.0"}`), Groups("core", "ui")).
		WithRule("item1", Provider("file_hash", `{"length":8}`)).
		WithRule("unset", NoProvider())
}

// WithOrphanRule adds a rule whose provider type is not registered.
func (b *Builder) WithOrphanRule(name string) *Builder {
	return b.WithRule(name, Provider("removed_plugin", `{"channel":"beta"}`))
}
