package classifier

// FileAction copies or moves Source into its folder as TargetName.
type FileAction struct {
	Source     string
	TargetName string
}

// Folder is one plan entry. The miscellaneous folder has no name and
// resolves to the target root.
type Folder struct {
	Name    string
	Misc    bool
	Actions []FileAction
}

// Plan is the ordered output of classification: named session folders in
// chronological order, then the miscellaneous folder if it has members.
type Plan struct {
	Folders []Folder
}

// FileCount returns the number of file actions across all folders.
func (p *Plan) FileCount() int {
	n := 0
	for _, f := range p.Folders {
		n += len(f.Actions)
	}
	return n
}

// Named returns the session folders, excluding the miscellaneous folder.
func (p *Plan) Named() []Folder {
	named := make([]Folder, 0, len(p.Folders))
	for _, f := range p.Folders {
		if !f.Misc {
			named = append(named, f)
		}
	}
	return named
}

// Misc returns the miscellaneous folder, or nil when every file has a session folder.
func (p *Plan) Misc() *Folder {
	for i := range p.Folders {
		if p.Folders[i].Misc {
			return &p.Folders[i]
		}
	}
	return nil
}
