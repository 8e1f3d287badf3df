package handler

import (
	"net/http"
	"testing"

	"github.com/civista/nirman/internal/middleware"
	"github.com/civista/nirman/internal/works/entity"
	"github.com/civista/nirman/internal/works/repository"
	"github.com/civista/nirman/internal/works/service"
	"github.com/civista/nirman/internal/works/testutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func setupAPI(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	services := service.NewServices(db, zap.NewNop(), repos, nil, nil, "")
	h := NewHandlers(services)

	api := testutil.AuthGroup(router, "/api/v1")
	registerFileRoutes(api, h)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func registerFileRoutes(api *gin.RouterGroup, h *Handlers) {
	files := api.Group("/files")
	files.POST("", h.File.Create)
	files.GET("", h.File.List)
	files.GET("/:id", h.File.Get)
	files.PUT("/:id", h.File.Update)
	files.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), h.File.Delete)
	files.PUT("/:id/estimate", h.Estimate.Save)
	files.GET("/:id/estimate", h.Estimate.Active)
	files.GET("/:id/estimate/versions", h.Estimate.Versions)
	files.PUT("/:id/assets", h.Asset.Replace)
	files.GET("/:id/assets", h.Asset.List)
	files.POST("/:id/forward", h.Workflow.Forward)
	files.POST("/:id/return", h.Workflow.Return)
	files.POST("/:id/approve", h.Workflow.Approve)
	files.POST("/:id/reject", h.Workflow.Reject)
	files.GET("/:id/movements", h.File.Movements)
	api.GET("/projects", h.Project.List)
	api.GET("/projects/:id", h.Project.Get)
	api.GET("/dashboard/inbox", h.Dashboard.InboxCounts)
}

var (
	jeToken  = testutil.GenerateTestToken("je-001", "R. Sharma", entity.RoleJE)
	sdeToken = testutil.GenerateTestToken("sde-001", "S. Verma", entity.RoleSDE)
	ceoToken = testutil.GenerateTestToken("ceo-001", "A. Gupta", entity.RoleCEO)
	admToken = testutil.GenerateTestToken("adm-001", "Admin", entity.RoleAdmin)
)

func createFileHTTP(t *testing.T, env *testutil.TestEnv) string {
	t.Helper()
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/files", map[string]interface{}{
		"name_of_work":     "Construction of link road, Ward 12",
		"type_of_work":     "road",
		"work_category":    "CONSTRUCTION",
		"project_category": "ROAD",
	}, jeToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("create file: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	return resp["data"].(map[string]interface{})["id"].(string)
}

func fillFileHTTP(t *testing.T, env *testutil.TestEnv, fileID string) {
	t.Helper()
	w := testutil.DoRequest(env.Router, "PUT", "/api/v1/files/"+fileID+"/estimate", map[string]interface{}{
		"items": []map[string]interface{}{
			{"description": "Earthwork in excavation", "quantity": 100, "unit": "cum", "rate": 0.4},
			{"description": "WBM grade II", "quantity": 50, "unit": "sqm", "rate": 0.4},
		},
	}, jeToken)
	if w.Code != http.StatusOK {
		t.Fatalf("save estimate: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(env.Router, "PUT", "/api/v1/files/"+fileID+"/assets", map[string]interface{}{
		"assets": []map[string]interface{}{
			{
				"start_latitude": 30.7333, "start_longitude": 76.7794,
				"end_latitude": 30.7350, "end_longitude": 76.7810,
				"description": "Link road segment A",
			},
		},
	}, jeToken)
	if w.Code != http.StatusOK {
		t.Fatalf("replace assets: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestFileApprovalOverHTTP(t *testing.T) {
	env := setupAPI(t)

	// Unauthenticated requests are rejected outright.
	w := testutil.DoRequest(env.Router, "GET", "/api/v1/files", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", w.Code)
	}

	// A non-JE cannot open a file.
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/files", map[string]interface{}{
		"name_of_work": "Culvert repair",
	}, ceoToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("CEO create: expected 403, got %d: %s", w.Code, w.Body.String())
	}

	fileID := createFileHTTP(t, env)

	// Forwarding an empty file fails the progress gate.
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/files/"+fileID+"/forward",
		map[string]interface{}{"to_role": entity.RoleSDE}, jeToken)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("forward empty file: expected 422, got %d: %s", w.Code, w.Body.String())
	}

	fillFileHTTP(t, env, fileID)

	// An unknown target role is a validation error.
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/files/"+fileID+"/forward",
		map[string]interface{}{"to_role": "COMMISSIONER"}, jeToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown to_role: expected 400, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/files/"+fileID+"/forward",
		map[string]interface{}{"to_role": entity.RoleSDE, "remarks": "for scrutiny"}, jeToken)
	if w.Code != http.StatusOK {
		t.Fatalf("forward: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// The JE is no longer the holder.
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/files/"+fileID+"/forward",
		map[string]interface{}{"to_role": entity.RoleCEO}, jeToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-holder forward: expected 403, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/files/"+fileID+"/forward",
		map[string]interface{}{"to_role": entity.RoleCEO}, sdeToken)
	if w.Code != http.StatusOK {
		t.Fatalf("SDE forward: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// The SDE holds no approval power even if it held the file.
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/files/"+fileID+"/approve", nil, sdeToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("SDE approve: expected 403, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/files/"+fileID+"/approve",
		map[string]interface{}{"remarks": "sanctioned"}, ceoToken)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	project := data["project"].(map[string]interface{})
	if project["approved_budget"].(float64) != 60 {
		t.Errorf("approved_budget = %v, want 60", project["approved_budget"])
	}
	projectID := project["id"].(string)

	// Double approval is a conflict.
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/files/"+fileID+"/approve", nil, ceoToken)
	if w.Code != http.StatusConflict {
		t.Fatalf("double approve: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	// The materialized project is readable with its assets.
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/projects/"+projectID, nil, jeToken)
	if w.Code != http.StatusOK {
		t.Fatalf("get project: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	assets := resp["data"].(map[string]interface{})["assets"].([]interface{})
	if len(assets) != 1 {
		t.Errorf("project assets = %d, want 1", len(assets))
	}

	// An approved file cannot be deleted, even by an administrator.
	w = testutil.DoRequest(env.Router, "DELETE", "/api/v1/files/"+fileID, nil, admToken)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("delete approved: expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestEstimateVersionsOverHTTP(t *testing.T) {
	env := setupAPI(t)
	fileID := createFileHTTP(t, env)

	for _, rate := range []float64{2, 3} {
		w := testutil.DoRequest(env.Router, "PUT", "/api/v1/files/"+fileID+"/estimate", map[string]interface{}{
			"items": []map[string]interface{}{
				{"description": "Earthwork", "quantity": 10, "unit": "cum", "rate": rate},
			},
		}, jeToken)
		if w.Code != http.StatusOK {
			t.Fatalf("save estimate: expected 200, got %d: %s", w.Code, w.Body.String())
		}
	}

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/files/"+fileID+"/estimate", nil, jeToken)
	if w.Code != http.StatusOK {
		t.Fatalf("get estimate: expected 200, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	active := resp["data"].(map[string]interface{})
	if active["version"].(float64) != 2 {
		t.Errorf("active version = %v, want 2", active["version"])
	}
	if active["total_amount"].(float64) != 30 {
		t.Errorf("active total = %v, want 30", active["total_amount"])
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/files/"+fileID+"/estimate/versions", nil, jeToken)
	resp = testutil.ParseResponse(w)
	versions := resp["data"].(map[string]interface{})["items"].([]interface{})
	if len(versions) != 2 {
		t.Errorf("version count = %d, want 2", len(versions))
	}

	// A negative rate never reaches the database.
	w = testutil.DoRequest(env.Router, "PUT", "/api/v1/files/"+fileID+"/estimate", map[string]interface{}{
		"items": []map[string]interface{}{
			{"description": "Earthwork", "quantity": 10, "unit": "cum", "rate": -1},
		},
	}, jeToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("negative rate: expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDashboardInboxOverHTTP(t *testing.T) {
	env := setupAPI(t)

	fileID := createFileHTTP(t, env)
	fillFileHTTP(t, env, fileID)
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/files/"+fileID+"/forward",
		map[string]interface{}{"to_role": entity.RoleSDE}, jeToken)
	if w.Code != http.StatusOK {
		t.Fatalf("forward: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	other := createFileHTTP(t, env)
	_ = other // stays pending in the JE's own inbox

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/dashboard/inbox", nil, sdeToken)
	if w.Code != http.StatusOK {
		t.Fatalf("inbox: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	counts := resp["data"].(map[string]interface{})["pending_by_role"].(map[string]interface{})
	if counts[entity.RoleSDE].(float64) != 1 {
		t.Errorf("SDE pending = %v, want 1", counts[entity.RoleSDE])
	}
	if counts[entity.RoleJE].(float64) != 1 {
		t.Errorf("JE pending = %v, want 1", counts[entity.RoleJE])
	}
}
