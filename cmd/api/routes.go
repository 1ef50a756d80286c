package main

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sagha-api/internal/handler"
	"github.com/noah-isme/sagha-api/internal/middleware"
	"github.com/noah-isme/sagha-api/internal/models"
)

type handlers struct {
	auth      *handler.AuthHandler
	colleges  *handler.CollegeHandler
	students  *handler.StudentHandler
	courses   *handler.CourseHandler
	semesters *handler.SemesterHandler
	category  *handler.CategoryHandler
	activity  *handler.ActivityHandler
	ops       *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, prefix string, tokens middleware.TokenValidator, h handlers) {
	r.GET("/health", h.ops.Health)
	r.GET("/ready", h.ops.Ready)
	r.GET("/metrics", h.ops.Prometheus)

	api := r.Group(prefix)
	authn := middleware.JWT(tokens)
	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireStaff()
	selfOrStaff := middleware.RBAC(middleware.RoleSelf, string(models.RoleAdmin), string(models.RoleEmployee))

	api.POST("/auth/login", h.auth.StaffLogin)

	college := api.Group("/college")
	college.GET("/:domain", h.colleges.Get)
	college.POST("", authn, admin, h.colleges.Create)
	college.PUT("/:id", authn, admin, h.colleges.Update)
	college.POST("/student/:domain", authn, staff, h.colleges.RegisterStudent)

	student := api.Group("/student/:domain")
	student.POST("/login", h.auth.StudentLogin)
	student.POST("/password", authn, middleware.RBAC(middleware.RoleSelf), h.auth.SetPassword)
	student.GET("/:studentId/hours", authn, selfOrStaff, h.students.Hours)
	student.GET("/:studentId/hours/export", authn, selfOrStaff, h.students.Export)

	api.GET("/exports/download", h.students.Download)

	course := api.Group("/course", authn)
	course.POST("/:domain", admin, h.courses.Create)
	course.GET("/:id", h.courses.Get)
	course.PUT("/:domain/:id", admin, h.courses.Update)

	semester := api.Group("/semester/:domain", authn)
	semester.POST("", admin, h.semesters.Create)
	semester.GET("/:semesterId", h.semesters.Get)
	semester.PUT("/:semesterId", admin, h.semesters.Update)

	activity := api.Group("/activity", authn)
	activity.POST("/category", admin, h.category.Create)
	activity.GET("/category", h.category.List)
	activity.POST("/:domain", selfOrStaff, h.activity.Create)
	activity.GET("/:domain", selfOrStaff, h.activity.List)
	activity.GET("/:domain/:id", selfOrStaff, h.activity.Get)
	activity.PATCH("/:domain/:id/review", staff, h.activity.Review)
}
