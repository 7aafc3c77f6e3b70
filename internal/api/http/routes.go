package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-gradebook/internal/course"
	"github.com/mind-engage/mindengage-gradebook/internal/rbac"
)

// MountCourses wires the course and gradebook API under r. Callers put the
// JWT middleware in front; every route here checks permissions itself.
func MountCourses(r chi.Router, svc *course.Service) {
	r.With(rbac.Require(rbac.PermCourseCreate)).Post("/", CreateCourseHandler(svc))

	r.Route("/{courseID}", func(cr chi.Router) {
		cr.With(rbac.Require(rbac.PermConfigView)).Get("/grading-config", GetGradingConfigHandler(svc))
		cr.With(rbac.Require(rbac.PermConfigEdit)).Put("/grading-config", PutGradingConfigHandler(svc))
		cr.With(rbac.Require(rbac.PermConfigView)).Post("/grading-config/validate", ValidateGradingConfigHandler())

		cr.With(rbac.Require(rbac.PermItemsView)).Get("/items", ListItemsHandler(svc))
		cr.With(rbac.Require(rbac.PermItemsEdit)).Post("/items", PutItemHandler(svc))
		cr.With(rbac.Require(rbac.PermItemsEdit)).Put("/items/{itemID}", PutItemHandler(svc))
		cr.With(rbac.Require(rbac.PermItemsEdit)).Delete("/items/{itemID}", DeleteItemHandler(svc))

		cr.With(rbac.Require(rbac.PermRosterView)).Get("/roster", ListRosterHandler(svc))
		cr.With(rbac.Require(rbac.PermRosterEdit)).Post("/roster", EnrollHandler(svc))

		cr.With(rbac.Require(rbac.PermEntriesView)).Get("/entries", ListEntriesHandler(svc))
		cr.With(rbac.RequireAny(rbac.PermEntriesView, rbac.PermEntriesWrite)).
			Get("/entries/{itemID}/{studentID}", GetEntryHandler(svc))
		cr.With(rbac.Require(rbac.PermEntriesWrite)).Put("/entries/{itemID}/{studentID}", PutEntryHandler(svc))

		cr.With(rbac.Require(rbac.PermGradebook)).Get("/gradebook", GradebookHandler(svc))
		cr.With(rbac.Require(rbac.PermExport)).Get("/export.csv", ExportCSVHandler(svc))
		cr.With(rbac.RequireOwnerOr(rbac.PermGradebook, IsStudentSelf)).
			Get("/students/{studentID}/grade", StudentGradeHandler(svc))
	})
}
