package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/matzehuels/moto/pkg/audit"
	"github.com/matzehuels/moto/pkg/controller"
	"github.com/matzehuels/moto/pkg/dashboard"
	moerr "github.com/matzehuels/moto/pkg/errors"
	"github.com/matzehuels/moto/pkg/render"
	"github.com/matzehuels/moto/pkg/session"
)

// decode reads a JSON body into v, rejecting unknown fields and oversized
// bodies.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return moerr.Wrap(moerr.ErrCodeInvalidInput, err, "invalid request body")
	}
	if dec.More() {
		return moerr.New(moerr.ErrCodeInvalidInput, "invalid request body: trailing data")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"audit":  s.consultant != nil && s.consultant.Configured(),
		"stream": s.stream != nil,
	})
}

// sessionResponse is returned by the auth endpoints. Token is the bearer
// value for later requests.
type sessionResponse struct {
	Token     string    `json:"token"`
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newSessionResponse(sess *session.Session) sessionResponse {
	return sessionResponse{
		Token:     sess.ID,
		AccountID: sess.AccountID,
		Email:     sess.Email,
		ExpiresAt: sess.ExpiresAt,
	}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Website  string `json:"website"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.sessions.SignUp(r.Context(), session.SignUpInput(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.SignOut(r.Context(), sessionFrom(r.Context()).ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"account_id": sess.AccountID,
		"email":      sess.Email,
		"expires_at": sess.ExpiresAt,
	})
}

// dashboardResponse is the dashboard with its derived display values.
type dashboardResponse struct {
	*dashboard.View
	Welcome  string          `json:"welcome"`
	Website  string          `json:"website_label"`
	Editable bool            `json:"editable"`
	Metrics  metricsResponse `json:"metrics"`
}

type metricsResponse struct {
	dashboard.Metrics
	FlowRate string `json:"flow_rate"`
}

func newDashboardResponse(v *dashboard.View) dashboardResponse {
	m := dashboard.MetricsFor(v.Form())
	return dashboardResponse{
		View:     v,
		Welcome:  v.Welcome(),
		Website:  v.Website(),
		Editable: v.Editable(),
		Metrics:  metricsResponse{Metrics: m, FlowRate: m.FlowRate()},
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	v, err := s.dashboard.Load(r.Context(), sessionFrom(r.Context()).UserID())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDashboardResponse(v))
}

func (s *Server) handleSaveStats(w http.ResponseWriter, r *http.Request) {
	var e dashboard.Edit
	if err := decode(w, r, &e); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	v, err := s.dashboard.Load(ctx, sessionFrom(ctx).UserID())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.dashboard.Save(ctx, v, e); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDashboardResponse(v))
}

type auditRequest struct {
	Description string `json:"description"`
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.consultant == nil {
		s.writeError(w, r, moerr.New(moerr.ErrCodeAuditMissing, "audits are not configured"))
		return
	}
	var req auditRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.consultant.Run(r.Context(), req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, auditResponse(res))
}

func auditResponse(res *audit.Result) *audit.Result {
	if res.Recommendations == nil {
		res.Recommendations = []string{}
	}
	return res
}

// frame is the JSON form of a stream snapshot.
type frame struct {
	Time      time.Time   `json:"time"`
	Mode      string      `json:"mode"`
	Position  float64     `json:"position"`
	Direction float64     `json:"direction"`
	Speed     int         `json:"speed"`
	Scanning  bool        `json:"scanning"`
	Band      [2]float64  `json:"band"`
	Cards     []frameCard `json:"cards"`
}

type frameCard struct {
	Index           int      `json:"index"`
	Image           int      `json:"image"`
	Left            float64  `json:"left"`
	Right           float64  `json:"right"`
	ClipPlainRight  float64  `json:"clip_plain_right"`
	ClipDecodedLeft float64  `json:"clip_decoded_left"`
	Pulsing         bool     `json:"pulsing"`
	Decoded         []string `json:"decoded,omitempty"`
}

func newFrame(snap controller.Snapshot, withText bool) frame {
	f := frame{
		Time:      snap.Time,
		Mode:      snap.Mode.String(),
		Position:  snap.Position,
		Direction: snap.Direction,
		Speed:     snap.Speed,
		Scanning:  snap.Scanning,
		Band:      [2]float64{snap.Band.Left, snap.Band.Right},
		Cards:     make([]frameCard, 0, len(snap.Slots)),
	}
	for _, v := range snap.Slots {
		c := frameCard{
			Index:           v.Index,
			Image:           v.Image,
			Left:            v.Box.Left,
			Right:           v.Box.Right,
			ClipPlainRight:  v.ClipPlainRight,
			ClipDecodedLeft: v.ClipDecodedLeft,
			Pulsing:         v.Pulsing,
		}
		if withText {
			c.Decoded = v.Decoded
		}
		f.Cards = append(f.Cards, c)
	}
	return f
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (controller.Snapshot, bool) {
	if s.stream == nil {
		writeProblem(w, r, http.StatusServiceUnavailable, moerr.ErrCodeUnsupported, "card stream is not running")
		return controller.Snapshot{}, false
	}
	return s.stream.Snapshot(), true
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newFrame(snap, r.URL.Query().Get("text") == "1"))
}

type imageFormat string

const (
	formatPNG imageFormat = "image/png"
	formatSVG imageFormat = "image/svg+xml"
)

func (s *Server) handleStreamImage(format imageFormat) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := s.snapshot(w, r)
		if !ok {
			return
		}
		var (
			data []byte
			err  error
		)
		switch format {
		case formatPNG:
			data, err = render.RenderPNG(snap)
		default:
			data, err = render.RenderSVG(snap)
		}
		if errors.Is(err, render.ErrEmptyFrame) {
			writeProblem(w, r, http.StatusServiceUnavailable, moerr.ErrCodeNotFound, "no frame rendered yet")
			return
		}
		if err != nil {
			s.writeError(w, r, fmt.Errorf("render frame: %w", err))
			return
		}
		w.Header().Set("Content-Type", string(format))
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(data)
	}
}
