package features

// Role names a column by meaning rather than by source naming convention
type Role string

const (
	RoleLabel        Role = "label"
	RoleFileName     Role = "file_name"
	RoleDuration     Role = "duration"
	RolePitchMax     Role = "pitch_max"
	RoleIntensityMax Role = "intensity_max"
)

// roleVariants lists the accepted column names per role, in lookup order
var roleVariants = map[Role][]string{
	RoleLabel:        {"word", "phoneme", "label"},
	RoleFileName:     {ColFileName, ColName},
	RoleDuration:     {"dur", "dur_mean"},
	RolePitchMax:     {"pitch_max", "pitch_max_mean"},
	RoleIntensityMax: {"intensity_max", "intensity_max_mean"},
}

// ZeroCheckRoles are the measurements that may never be exactly zero in a
// valid row
var ZeroCheckRoles = []Role{RolePitchMax, RoleDuration, RoleIntensityMax}

// Schema maps each role to the column carrying it in one table
type Schema map[Role]string

// ResolveSchema inspects the table once and records which naming variant
// carries each role
func ResolveSchema(t *Table) Schema {
	s := make(Schema)
	for role, variants := range roleVariants {
		for _, name := range variants {
			if t.HasColumn(name) {
				s[role] = name
				break
			}
		}
	}
	return s
}

// Column returns the column name for role
func (s Schema) Column(role Role) (string, bool) {
	name, ok := s[role]
	return name, ok
}

// Variants returns the accepted column names for role
func Variants(role Role) []string {
	return append([]string(nil), roleVariants[role]...)
}
