package rbac

const (
	PermConfigView   = "grading_config:view"
	PermConfigEdit   = "grading_config:edit"
	PermCourseCreate = "course:create"
	PermItemsView    = "items:view"
	PermItemsEdit    = "items:edit"
	PermRosterView   = "roster:view"
	PermRosterEdit   = "roster:edit"
	PermEntriesView  = "entries:view"
	PermEntriesWrite = "entries:write"
	PermGradebook    = "gradebook:view"
	PermExport       = "gradebook:export"
	PermGradeOwn     = "grade:view-own"
	PermEvents       = "events:view"
)

// RolePermissions is the default policy. A trailing * matches any suffix.
var RolePermissions = map[string][]string{
	"student": {
		PermConfigView,
		PermItemsView,
		PermGradeOwn,
	},
	"assistant": {
		PermConfigView,
		PermItemsView,
		PermRosterView,
		"entries:*",
		PermGradebook,
	},
	"teacher": {
		PermCourseCreate,
		"grading_config:*",
		"items:*",
		"roster:*",
		"entries:*",
		"gradebook:*",
	},
	"admin": {
		"*",
	},
}
