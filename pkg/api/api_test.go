package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/cutplan/pkg/config"
	"github.com/chazu/cutplan/pkg/job"
	"github.com/chazu/cutplan/pkg/kernel/sdfx"
	"github.com/chazu/cutplan/pkg/ops"
	"github.com/chazu/cutplan/pkg/tooling"
)

const setupJob = `
(tool :number 1 :type :end-mill :diameter 6 :material :carbide)
(tool :number 2 :type :drill :diameter 3)
(sketch :id 1 :min (vec3 0 0 0) :max (vec3 40 40 10))
(operation :kind :pocket :id 1 :tool 1 :sketches (list 1))
`

func newRouter(t *testing.T) (*gin.Engine, *job.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := job.NewSession(config.NewMemory(), sdfx.New(24), nil)
	res := s.Run(setupJob, job.Options{})
	require.True(t, res.OK(), "errors: %v", res.Errors)
	return NewRouter(s, nil), s
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, w, &body)
	return body["error"]
}

func TestListTools(t *testing.T) {
	r, _ := newRouter(t)

	w := do(r, http.MethodGet, "/tools", "")
	require.Equal(t, http.StatusOK, w.Code)

	var tools []ToolView
	decode(t, w, &tools)
	require.Len(t, tools, 2)
	assert.Equal(t, 1, tools[0].Number)
	assert.Equal(t, "6 mm Carbide End Mill", tools[0].Title)
	assert.Equal(t, tooling.TypeEndMill, tools[0].Params.Type)
	assert.Equal(t, tooling.TypeDrill, tools[1].Params.Type)
}

func TestGetTool(t *testing.T) {
	r, _ := newRouter(t)

	w := do(r, http.MethodGet, "/tools/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var tool ToolView
	decode(t, w, &tool)
	assert.Equal(t, "3 mm HSS Drill Bit", tool.Title)
	assert.True(t, tool.AutoTitle)

	w = do(r, http.MethodGet, "/tools/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/tools/9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, errorBody(t, w), "tool not found")
}

func TestCreateAndDeleteTool(t *testing.T) {
	r, s := newRouter(t)

	w := do(r, http.MethodPost, "/tools?units=inch", `{"type": "end-mill", "diameter": 0.25}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tool ToolView
	decode(t, w, &tool)
	assert.Equal(t, 3, tool.Number)
	assert.InDelta(t, 6.35, tool.Params.Diameter, 1e-9)

	w = do(r, http.MethodPost, "/tools", `{"number": 1, "type": "drill"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = do(r, http.MethodPost, "/tools", `{"type": "router"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPost, "/tools?units=furlong", `{"type": "drill"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodDelete, "/tools/3", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 2, s.Tools().Len())
	w = do(r, http.MethodDelete, "/tools/3", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCalibrateTool(t *testing.T) {
	r, _ := newRouter(t)
	w := do(r, http.MethodPost, "/tools", `{"number": 5, "type": "touch-probe", "diameter": 2}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	points := `<points><point x="0.1" y="-0.1" z="0"/><point x="0.3" y="0.1" z="0"/></points>`
	w = do(r, http.MethodPost, "/tools/5/calibration", points)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Points int      `json:"points"`
		Tool   ToolView `json:"tool"`
	}
	decode(t, w, &body)
	assert.Equal(t, 2, body.Points)
	assert.InDelta(t, 0.2, body.Tool.Params.ProbeOffsetX, 1e-12)
	assert.InDelta(t, 0.0, body.Tool.Params.ProbeOffsetY, 1e-12)

	w = do(r, http.MethodPost, "/tools/2/calibration", points)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = do(r, http.MethodPost, "/tools/5/calibration", "<points")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPost, "/tools/9/calibration", points)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFirstTool(t *testing.T) {
	r, _ := newRouter(t)

	w := do(r, http.MethodGet, "/tools/first?type=drill", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]int
	decode(t, w, &body)
	assert.Equal(t, 2, body["number"])

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/tools/first?type=chamfer", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/tools/first?type=router", "").Code)
}

func TestToolGeometry(t *testing.T) {
	r, _ := newRouter(t)

	w := do(r, http.MethodGet, "/tools/1/profile", "")
	require.Equal(t, http.StatusOK, w.Code)
	var profile struct {
		Points []struct{ X, Y float64 } `json:"points"`
	}
	decode(t, w, &profile)
	assert.NotEmpty(t, profile.Points)

	w = do(r, http.MethodGet, "/tools/1/mesh", "")
	require.Equal(t, http.StatusOK, w.Code)
	var mesh MeshView
	decode(t, w, &mesh)
	assert.Greater(t, mesh.Triangles, 0)
	assert.Equal(t, "6 mm Carbide End Mill", mesh.Label)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/tools/7/profile", "").Code)
}

func TestOperations(t *testing.T) {
	r, s := newRouter(t)

	w := do(r, http.MethodGet, "/operations", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []ops.Operation
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, ops.KindPocket, list[0].Kind)

	w = do(r, http.MethodPost, "/operations", `{"kind":"drilling","sketches":[1],"final_depth":-4}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created ops.Operation
	decode(t, w, &created)
	assert.Equal(t, 2, created.ID)
	assert.Equal(t, 2, created.ToolNumber)
	require.NotNil(t, created.Depth)
	assert.Equal(t, 10.0, created.Depth.StartDepth)
	assert.Equal(t, -4.0, created.Depth.FinalDepth)
	assert.Len(t, s.Operations(), 2)

	w = do(r, http.MethodPost, "/operations", `{"kind":"pocket","id":1}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, errorBody(t, w), "duplicate operation id")

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/operations", `{"kind":"engrave"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/operations", `{"id":3}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/operations", `not json`).Code)
}

func TestValidateOperation(t *testing.T) {
	r, _ := newRouter(t)

	w := do(r, http.MethodPost, "/operations/1/validate", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Messages  []string      `json:"messages"`
		Operation ops.Operation `json:"operation"`
	}
	decode(t, w, &body)
	assert.Equal(t, []string{"WARNING: Depth Operation (id=1).  Clearance height is below start depth\n"}, body.Messages)
	assert.Equal(t, 5.0, body.Operation.Depth.ClearanceHeight)

	w = do(r, http.MethodPost, "/operations/1/validate?fix=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	assert.Len(t, body.Messages, 2)
	assert.Equal(t, 15.0, body.Operation.Depth.ClearanceHeight)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/operations/1/validate?fix=maybe", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/operations/x/validate", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/operations/9/validate", "").Code)
}

func TestProgram(t *testing.T) {
	r, _ := newRouter(t)

	w := do(r, http.MethodGet, "/program?title=bracket", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "comment('bracket')\nabsolute()\nmetric()\n"))
	assert.Contains(t, w.Body.String(), "tool_change( id=1)\n")
	assert.NotEmpty(t, w.Header().Get("X-Program-ID"))
}

func TestRun(t *testing.T) {
	r, s := newRouter(t)

	w := do(r, http.MethodPost, "/run?fix=true&title=job", `(tool :number 4 :type :chamfer :diameter 10)`)
	require.Equal(t, http.StatusOK, w.Code)
	var res job.Result
	decode(t, w, &res)
	assert.Contains(t, res.Program, "comment('job')")
	assert.Equal(t, 1, s.Tools().Len())

	w = do(r, http.MethodPost, "/run", `(tool :number`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	decode(t, w, &res)
	assert.NotEmpty(t, res.Errors)
}
