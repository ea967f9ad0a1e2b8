// Package api serves a session over HTTP with gin.
package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chazu/cutplan/pkg/engine"
	"github.com/chazu/cutplan/pkg/job"
	"github.com/chazu/cutplan/pkg/kernel"
	"github.com/chazu/cutplan/pkg/logging"
	"github.com/chazu/cutplan/pkg/ops"
	"github.com/chazu/cutplan/pkg/tooling"
	"github.com/chazu/cutplan/pkg/toollib"
	"github.com/chazu/cutplan/pkg/units"
)

// Server holds the routes' shared state.
type Server struct {
	session *job.Session
	logger  *zap.Logger
}

// NewRouter builds the gin engine for s.
func NewRouter(s *job.Session, logger *zap.Logger) *gin.Engine {
	srv := &Server{session: s, logger: logging.OrNop(logger)}

	r := gin.New()
	r.Use(gin.Recovery(), srv.logRequests())

	r.GET("/tools", srv.listTools)
	r.POST("/tools", srv.createTool)
	r.GET("/tools/first", srv.firstTool)
	r.GET("/tools/:number", srv.getTool)
	r.GET("/tools/:number/profile", srv.toolProfile)
	r.GET("/tools/:number/mesh", srv.toolMesh)
	r.DELETE("/tools/:number", srv.deleteTool)
	r.POST("/tools/:number/calibration", srv.calibrateTool)

	r.GET("/operations", srv.listOperations)
	r.POST("/operations", srv.createOperation)
	r.POST("/operations/:id/validate", srv.validateOperation)

	r.GET("/program", srv.program)
	r.POST("/run", srv.run)
	return r
}

func (srv *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		srv.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// ToolView is the JSON shape of a tool.
type ToolView struct {
	Number    int            `json:"number"`
	Title     string         `json:"title"`
	AutoTitle bool           `json:"auto_title"`
	Params    tooling.Params `json:"params"`
}

func viewTool(t *tooling.Tool) ToolView {
	return ToolView{Number: t.Number(), Title: t.Title(), AutoTitle: t.AutoTitle(), Params: t.Params()}
}

func (srv *Server) listTools(c *gin.Context) {
	views := []ToolView{}
	for _, t := range srv.session.Tools().Tools() {
		views = append(views, viewTool(t))
	}
	c.JSON(http.StatusOK, views)
}

func (srv *Server) lookupTool(c *gin.Context) (*tooling.Tool, bool) {
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		fail(c, http.StatusBadRequest, errors.New("tool number must be an integer"))
		return nil, false
	}
	t, ok := srv.session.Tools().Find(n)
	if !ok {
		fail(c, http.StatusNotFound, job.ErrToolNotFound)
		return nil, false
	}
	return t, true
}

func (srv *Server) getTool(c *gin.Context) {
	if t, ok := srv.lookupTool(c); ok {
		c.JSON(http.StatusOK, viewTool(t))
	}
}

// createTool registers a tool described like a tool library entry. The
// units query parameter gives its length units (default mm); a missing
// number takes the next free one.
func (srv *Server) createTool(c *gin.Context) {
	var spec toollib.ToolSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	u := units.Millimetres
	if q := c.Query("units"); q != "" {
		parsed, err := units.Parse(q)
		if err != nil {
			fail(c, http.StatusBadRequest, err)
			return
		}
		u = parsed
	}
	t, err := srv.session.AddTool(spec, u)
	if errors.Is(err, tooling.ErrDuplicateToolNumber) {
		fail(c, http.StatusConflict, err)
		return
	}
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusCreated, viewTool(t))
}

func (srv *Server) deleteTool(c *gin.Context) {
	t, ok := srv.lookupTool(c)
	if !ok {
		return
	}
	if err := srv.session.RemoveTool(t.Number()); err != nil {
		fail(c, http.StatusNotFound, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// calibrateTool reads probed points (XML) from the body into a touch
// probe's offsets.
func (srv *Server) calibrateTool(c *gin.Context) {
	t, ok := srv.lookupTool(c)
	if !ok {
		return
	}
	n, err := srv.session.CalibrateProbe(t.Number(), c.Request.Body)
	if errors.Is(err, tooling.ErrNotProbe) {
		fail(c, http.StatusUnprocessableEntity, err)
		return
	}
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": n, "tool": viewTool(t)})
}

func (srv *Server) firstTool(c *gin.Context) {
	ty, err := tooling.ParseType(c.Query("type"))
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	n, ok := srv.session.Tools().FindFirstByType(ty)
	if !ok {
		fail(c, http.StatusNotFound, job.ErrToolNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"number": n})
}

func (srv *Server) toolProfile(c *gin.Context) {
	t, ok := srv.lookupTool(c)
	if !ok {
		return
	}
	points, err := t.SideProfile()
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"number": t.Number(), "points": points, "units": "mm"})
}

func (srv *Server) listOperations(c *gin.Context) {
	list := srv.session.Operations()
	if list == nil {
		list = []*ops.Operation{}
	}
	c.JSON(http.StatusOK, list)
}

// OperationRequest creates an operation. Lengths are millimetres.
type OperationRequest struct {
	Kind     string `json:"kind" binding:"required"`
	ID       int    `json:"id"`
	Tool     int    `json:"tool"`
	Sketches []int  `json:"sketches"`
	Title    string `json:"title"`
	Comment  string `json:"comment"`
	Active   *bool  `json:"active"`
	Fixture  int    `json:"fixture"`

	ClearanceHeight   *float64 `json:"clearance_height"`
	RapidDownToHeight *float64 `json:"rapid_down_to_height"`
	StartDepth        *float64 `json:"start_depth"`
	StepDown          *float64 `json:"step_down"`
	FinalDepth        *float64 `json:"final_depth"`
	HorizontalFeed    *float64 `json:"horizontal_feed_rate"`
	VerticalFeed      *float64 `json:"vertical_feed_rate"`
	SpindleSpeed      *float64 `json:"spindle_speed"`
}

func (r OperationRequest) decl() (engine.OperationDecl, error) {
	kind, err := ops.ParseKind(r.Kind)
	if err != nil {
		return engine.OperationDecl{}, err
	}
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return engine.OperationDecl{
		Kind:     kind,
		ID:       r.ID,
		Tool:     r.Tool,
		Sketches: r.Sketches,
		Title:    r.Title,
		Comment:  r.Comment,
		Active:   active,
		Fixture:  r.Fixture,
		Overrides: engine.Overrides{
			ClearanceHeight:   r.ClearanceHeight,
			RapidDownToHeight: r.RapidDownToHeight,
			StartDepth:        r.StartDepth,
			StepDown:          r.StepDown,
			FinalDepth:        r.FinalDepth,
			HorizontalFeed:    r.HorizontalFeed,
			VerticalFeed:      r.VerticalFeed,
			SpindleSpeed:      r.SpindleSpeed,
		},
	}, nil
}

func (srv *Server) createOperation(c *gin.Context) {
	var req OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	decl, err := req.decl()
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	op, err := srv.session.AddOperation(decl)
	if errors.Is(err, job.ErrDuplicateOperation) {
		fail(c, http.StatusConflict, err)
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, op)
}

func (srv *Server) validateOperation(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, errors.New("operation id must be an integer"))
		return
	}
	fix := false
	if q := c.Query("fix"); q != "" {
		if fix, err = strconv.ParseBool(q); err != nil {
			fail(c, http.StatusBadRequest, errors.New("fix must be a boolean"))
			return
		}
	}

	findings, err := srv.session.ValidateOperation(id, fix)
	if errors.Is(err, job.ErrOperationNotFound) {
		fail(c, http.StatusNotFound, err)
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	msgs := make([]string, 0, len(findings))
	for _, f := range findings {
		msgs = append(msgs, f.Message+"\n")
	}
	op, _ := srv.session.Operation(id)
	c.JSON(http.StatusOK, gin.H{"findings": findings, "messages": msgs, "operation": op})
}

func (srv *Server) program(c *gin.Context) {
	p := srv.session.Program(c.Query("title"))
	c.Header("X-Program-ID", p.ID.String())
	c.String(http.StatusOK, p.Text())
}

// run replaces the session with the job script in the request body.
func (srv *Server) run(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	fix, _ := strconv.ParseBool(c.Query("fix"))
	res := srv.session.Run(string(body), job.Options{Title: c.Query("title"), ApplyFixes: fix})
	status := http.StatusOK
	if !res.OK() {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}

// MeshView is the JSON shape of a tessellated tool.
type MeshView struct {
	Label     string    `json:"label"`
	Vertices  []float32 `json:"vertices"`
	Normals   []float32 `json:"normals"`
	Indices   []uint32  `json:"indices"`
	Triangles int       `json:"triangles"`
}

func (srv *Server) toolMesh(c *gin.Context) {
	t, ok := srv.lookupTool(c)
	if !ok {
		return
	}
	m, err := srv.session.ToolMesh(t.Number())
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, err)
		return
	}
	c.JSON(http.StatusOK, viewMesh(m))
}

func viewMesh(m *kernel.Mesh) MeshView {
	return MeshView{
		Label:     m.Label,
		Vertices:  m.Vertices,
		Normals:   m.Normals,
		Indices:   m.Indices,
		Triangles: m.TriangleCount(),
	}
}
