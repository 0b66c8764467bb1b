package status

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type fooService struct{}

func (fooService) GetStatus() any {
	return map[string]int{"foo": 123}
}

func newTestService() *Service {
	s := NewService()
	s.Register("fooService", fooService{})
	s.Register("barService", ReporterFunc(func() any {
		return map[string]string{"bar": "baz"}
	}))
	return s
}

func TestGetStatus(t *testing.T) {
	s := newTestService()
	require.Equal(t, map[string]any{
		"fooService": map[string]int{"foo": 123},
		"barService": map[string]string{"bar": "baz"},
	}, s.GetStatus())
}

func TestGetReporters(t *testing.T) {
	s := newTestService()
	require.Equal(t, []string{"fooService", "barService"}, s.GetReporters())
}

func TestGetReporterStatus(t *testing.T) {
	s := newTestService()

	st, err := s.GetReporterStatus("fooService")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"foo": 123}, st)

	_, err = s.GetReporterStatus("bazService")
	require.ErrorIs(t, err, ErrUnknownReporter)
	require.EqualError(t, err, "unknown reporter bazService")
}

func TestServeHTTP(t *testing.T) {
	s := newTestService()

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"fooService":{"foo":123},"barService":{"bar":"baz"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/barService", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"bar":"baz"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/bazService", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
