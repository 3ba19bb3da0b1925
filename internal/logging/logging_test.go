package logging

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogData_Absent(t *testing.T) {
	assert.Nil(t, GetLogData(context.Background()))
}

func TestLogData_CollectsFieldsAndTimings(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logData := NewLogData(logger)

	logData.AddData("accountID", "abc")
	stop := logData.AddTiming("storeMs")
	stop()
	logData.Log().Info("done")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "abc", entry.Data["accountID"])
	assert.Contains(t, entry.Data, "storeMs")
}

func TestLoggingWrapper_PerRequestLogData(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	var seen []*LogData
	handler := LoggingWrapper("Test", logger, func(w http.ResponseWriter, req *http.Request, logData *LogData) error {
		assert.Same(t, logData, GetLogData(req.Context()))
		seen = append(seen, logData)
		if req.Method == http.MethodPost {
			return errors.New("nope")
		}
		w.WriteHeader(http.StatusOK)
		return nil
	})

	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, "Handler.Test.Complete", hook.LastEntry().Message)

	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/status", nil))
	assert.Equal(t, "Handler.Test.Error", hook.LastEntry().Message)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)

	require.Len(t, seen, 2)
	assert.NotSame(t, seen[0], seen[1])
}

type pingOutput struct {
	Body struct {
		HasLogData bool `json:"hasLogData"`
	}
}

func TestHumaMiddleware(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	_, api := humatest.New(t)
	api.UseMiddleware(HumaMiddleware(logger))

	huma.Register(api, huma.Operation{
		OperationID: "ping",
		Method:      http.MethodGet,
		Path:        "/ping",
	}, func(ctx context.Context, _ *struct{}) (*pingOutput, error) {
		out := &pingOutput{}
		out.Body.HasLogData = GetLogData(ctx) != nil
		return out, nil
	})

	resp := api.Get("/ping")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"hasLogData":true`)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Handler.ping.Complete", entry.Message)
	assert.Equal(t, "ping", entry.Data["operation"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
}
