package metrics_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/flowstory"
	"github.com/aretw0/flowstory/internal/metrics"
	"github.com/aretw0/flowstory/pkg/adapters/memory"
	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/aretw0/flowstory/pkg/dsl"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooks_Extraction(t *testing.T) {
	m := metrics.New()

	b := dsl.New("KEY")
	b.Frame("a").OnClick("b")
	b.Frame("b").OnClick("c")
	b.Frame("c")
	eng, err := flowstory.New(b.MustBuild(),
		flowstory.WithMaxFrames(2),
		flowstory.WithLifecycleHooks(m.Hooks()),
	)
	require.NoError(t, err)

	_, err = eng.ExtractByID(context.Background(), "a")
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FrameVisits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Truncations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Extractions.WithLabelValues("ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FlowFrames))
}

func TestHooks_Generation(t *testing.T) {
	m := metrics.New()
	hooks := m.Hooks()

	hooks.OnGenerated(context.Background(), &domain.GenerationEvent{Stories: 3})
	hooks.OnGenerated(context.Background(), &domain.GenerationEvent{Err: errors.New("boom")})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Generations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Generations.WithLabelValues("error")))
}

func TestPublisher_CountsMessages(t *testing.T) {
	m := metrics.New()
	rec := memory.NewRecorder()
	pub := m.Publisher(rec)

	require.NoError(t, pub.Publish(context.Background(), domain.Message{Type: domain.MessageInfo}))
	require.NoError(t, pub.Publish(context.Background(), domain.Message{Type: domain.MessageInfo}))
	require.NoError(t, pub.Publish(context.Background(), domain.Message{Type: domain.MessageError}))

	assert.Len(t, rec.Messages(), 3)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Messages.WithLabelValues(domain.MessageInfo)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Messages.WithLabelValues(domain.MessageError)))
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.FrameVisits.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "flowstory_frame_visits_total 1")
}

func TestChain(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnTruncated: func(context.Context, *domain.FlowEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{
		OnTruncated: func(context.Context, *domain.FlowEvent) { calls = append(calls, "b") },
		OnExtracted: func(context.Context, *domain.FlowEvent) { calls = append(calls, "extracted") },
	}

	h := metrics.Chain(a, domain.LifecycleHooks{}, b)
	h.OnTruncated(context.Background(), &domain.FlowEvent{})
	h.OnExtracted(context.Background(), &domain.FlowEvent{})

	assert.Equal(t, []string{"a", "b", "extracted"}, calls)
	assert.Nil(t, h.OnFrameVisit)
}
