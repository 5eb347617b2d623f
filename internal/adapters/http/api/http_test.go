package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/unirank/internal/adapters/http/api"
	service "github.com/okian/unirank/internal/app"
	"github.com/okian/unirank/internal/domain/model"
	"github.com/okian/unirank/internal/domain/ranking"
	"github.com/okian/unirank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
}

const (
	csDept = "Name,ID,Department,GPA\nAlice,1,CS,3.9\nBob,2,CS,3.5\nBroken,9,CS,x"
	eeDept = "Student Name,StudentID,Dept,GPA\nCarol,3,EE,3.7"
)

// multipartBody builds a form with one "files" part per name/content pair.
func multipartBody(pairs ...string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i := 0; i+1 < len(pairs); i += 2 {
		fw, err := mw.CreateFormFile("files", pairs[i])
		if err != nil {
			panic(err)
		}
		_, _ = io.WriteString(fw, pairs[i+1])
	}
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

type harness struct {
	svc *service.Service
	mux *http.ServeMux
}

func newHarness(opts ...api.ServerOption) *harness {
	svc := service.New(service.WithSessionTTL(0))
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc, opts...).Register(context.Background(), mux)
	return &harness{svc: svc, mux: mux}
}

func (h *harness) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, req)
	return w
}

func (h *harness) createSession() string {
	w := h.do(http.MethodPost, "/sessions", nil, "")
	var out struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out.ID
}

func (h *harness) importFiles(id, mode string, pairs ...string) *httptest.ResponseRecorder {
	body, ct := multipartBody(pairs...)
	target := "/sessions/" + id + "/imports"
	if mode != "" {
		target += "?mode=" + mode
	}
	return h.do(http.MethodPost, target, body, ct)
}

func decodeError(w *httptest.ResponseRecorder) (code, message string) {
	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &e)
	return e.Code, e.Message
}

func TestServer_Sessions(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		h := newHarness()
		defer h.svc.Stop()

		Convey("When a session is created", func() {
			w := h.do(http.MethodPost, "/sessions", nil, "")

			Convey("Then it should return 201 with an id", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var out map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
				So(out["id"], ShouldNotBeEmpty)
				So(w.Header().Get("Location"), ShouldEqual, "/sessions/"+out["id"].(string))
			})
		})

		Convey("When a session is deleted", func() {
			id := h.createSession()
			w := h.do(http.MethodDelete, "/sessions/"+id, nil, "")

			Convey("Then it should return 204 and the session should be gone", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				w = h.do(http.MethodGet, "/sessions/"+id+"/rankings", nil, "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
				code, _ := decodeError(w)
				So(code, ShouldEqual, "session_not_found")
			})
		})

		Convey("When the wrong method is used", func() {
			w := h.do(http.MethodGet, "/sessions", nil, "")

			Convey("Then the mux should reject it", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestServer_Imports(t *testing.T) {
	Convey("Given a session", t, func() {
		h := newHarness()
		defer h.svc.Stop()
		id := h.createSession()

		Convey("When two valid files are uploaded", func() {
			w := h.importFiles(id, "", "cs.csv", csDept, "ee.csv", eeDept)

			Convey("Then the import report should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res service.ImportResult
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.Imported, ShouldEqual, 3)
				So(res.SkippedRows, ShouldEqual, 1)
				So(res.Files[0].Skipped[0].Reason, ShouldEqual, ranking.ReasonInvalidGPA)
				So(res.Mode, ShouldEqual, service.ImportReplace)
			})

			Convey("And the rankings should be readable", func() {
				w := h.do(http.MethodGet, "/sessions/"+id+"/rankings?limit=2", nil, "")
				So(w.Code, ShouldEqual, http.StatusOK)

				var out struct {
					Total   int         `json:"total"`
					Entries []api.Entry `json:"entries"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
				So(out.Total, ShouldEqual, 3)
				So(out.Entries, ShouldHaveLength, 2)
				So(out.Entries[0].Name, ShouldEqual, "Alice")
				So(out.Entries[1].Rank, ShouldEqual, 2)
			})

			Convey("And a student should be found by id", func() {
				w := h.do(http.MethodGet, "/sessions/"+id+"/students/3", nil, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"name":"Carol"`)

				w = h.do(http.MethodGet, "/sessions/"+id+"/students/77", nil, "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And the export should download as csv", func() {
				w := h.do(http.MethodGet, "/sessions/"+id+"/export", nil, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "text/csv; charset=utf-8")
				So(w.Header().Get("Content-Disposition"), ShouldStartWith, "attachment; filename=university_rankings_")
				So(w.Body.String(), ShouldEqual, "Rank,Name,ID,Department,GPA\n1,Alice,1,CS,3.90\n2,Carol,3,EE,3.70\n3,Bob,2,CS,3.50")
			})

			Convey("And an append import should grow the ranking", func() {
				w := h.importFiles(id, "append", "more.csv", "Name,ID,Department,GPA\nZoe,8,ME,4.0")
				So(w.Code, ShouldEqual, http.StatusOK)

				w = h.do(http.MethodGet, "/sessions/"+id+"/rankings", nil, "")
				So(w.Body.String(), ShouldContainSubstring, `"total":4`)
				So(w.Body.String(), ShouldContainSubstring, `{"rank":1,"name":"Zoe"`)
			})
		})

		Convey("When a file has an unsupported type", func() {
			w := h.importFiles(id, "", "cs.csv", csDept, "notes.pdf", "%PDF-1.4")

			Convey("Then the batch should be rejected with 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				code, msg := decodeError(w)
				So(code, ShouldEqual, "unsupported_file_type")
				So(msg, ShouldContainSubstring, "notes.pdf")
			})
		})

		Convey("When a file has an invalid header", func() {
			w := h.importFiles(id, "", "bad.csv", "Nmae,ID,Department,GPA\nZed,1,CS,3.0")

			Convey("Then the batch should be rejected with a suggestion", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				code, msg := decodeError(w)
				So(code, ShouldEqual, "structure_invalid")
				So(msg, ShouldContainSubstring, `did you mean "Nmae"?`)
			})
		})

		Convey("When no files are attached", func() {
			w := h.importFiles(id, "")

			Convey("Then the batch should be rejected as empty", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				code, _ := decodeError(w)
				So(code, ShouldEqual, "empty_batch")
			})
		})

		Convey("When the import mode is unknown", func() {
			w := h.importFiles(id, "upsert", "cs.csv", csDept)

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the session is unknown", func() {
			w := h.importFiles("nope", "", "cs.csv", csDept)

			Convey("Then it should be 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the body is not multipart", func() {
			w := h.do(http.MethodPost, "/sessions/"+id+"/imports", strings.NewReader("{}"), "application/json")

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})

	Convey("Given a server with a small upload limit", t, func() {
		h := newHarness(api.WithMaxUploadBytes(64))
		defer h.svc.Stop()
		id := h.createSession()

		Convey("When the upload is too large", func() {
			w := h.importFiles(id, "", "cs.csv", strings.Repeat("x", 1024))

			Convey("Then it should be rejected with 413", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				code, _ := decodeError(w)
				So(code, ShouldEqual, "payload_too_large")
			})
		})
	})
}

func TestServer_RankingLimits(t *testing.T) {
	Convey("Given a server with a list limit of 5", t, func() {
		h := newHarness(api.WithMaxListLimit(5))
		defer h.svc.Stop()
		id := h.createSession()

		Convey("Then invalid limits should be rejected", func() {
			for _, q := range []string{"0", "-1", "abc"} {
				w := h.do(http.MethodGet, "/sessions/"+id+"/rankings?limit="+q, nil, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("Then limits above the maximum should be rejected", func() {
			w := h.do(http.MethodGet, "/sessions/"+id+"/rankings?limit=6", nil, "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			code, _ := decodeError(w)
			So(code, ShouldEqual, "limit_exceeded")
		})

		Convey("Then an empty session should list nothing", func() {
			w := h.do(http.MethodGet, "/sessions/"+id+"/rankings?limit=5", nil, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"entries":[]`)
		})
	})
}

func TestServer_Operational(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		h := newHarness()
		defer h.svc.Stop()

		Convey("Then /healthz should report ok", func() {
			w := h.do(http.MethodGet, "/healthz", nil, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("Then /metrics should expose the ranking metrics", func() {
			h.do(http.MethodGet, "/healthz", nil, "")
			w := h.do(http.MethodGet, "/metrics", nil, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "unirank_ranking_http_requests_total")
		})

		Convey("Then /stats should report the service state", func() {
			w := h.do(http.MethodGet, "/stats", nil, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})
	})
}

// stubDeps fails every call with err.
type stubDeps struct{ err error }

func (s stubDeps) CreateSession(context.Context) (model.Session, error) {
	return model.Session{}, s.err
}
func (s stubDeps) DeleteSession(context.Context, string) error { return s.err }
func (s stubDeps) Import(context.Context, string, []ranking.Selection, service.ImportMode) (*service.ImportResult, error) {
	return nil, s.err
}
func (s stubDeps) TopN(context.Context, string, int) ([]api.Entry, int, error) { return nil, 0, s.err }
func (s stubDeps) Lookup(context.Context, string, string) ([]api.Entry, error) { return nil, s.err }
func (s stubDeps) Export(context.Context, string) (service.Export, error) {
	return service.Export{}, s.err
}
func (s stubDeps) GetStats() map[string]interface{} { return map[string]interface{}{} }

func TestServer_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&ranking.FileError{FileName: "a.csv", Kind: ranking.ErrReadFailure, Err: errors.New("eof")}, http.StatusUnprocessableEntity, "read_failure"},
		{ranking.ErrTooManyFiles, http.StatusBadRequest, "too_many_files"},
		{service.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	Convey("Given dependencies that fail", t, func() {
		for _, tc := range cases {
			mux := http.NewServeMux()
			deps := stubDeps{err: tc.err}
			api.NewServer(deps, deps).Register(context.Background(), mux)

			body, ct := multipartBody("a.csv", csDept)
			req := httptest.NewRequest(http.MethodPost, "/sessions/x/imports", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, tc.status)
			code, _ := decodeError(w)
			So(code, ShouldEqual, tc.code)
		}
	})
}
