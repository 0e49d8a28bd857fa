package lptoqs

import (
	"github.com/kr/pretty"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/romanowski/quasar/compiler/lp"
	"github.com/romanowski/quasar/compiler/provenance"
	"github.com/romanowski/quasar/compiler/qsu"
)

// Tracer renders the intermediate graph between every pass.  A nil
// Tracer is a no-op, so the pipeline can thread one unconditionally.
type Tracer struct {
	log *zap.Logger
	run string
}

func NewTracer(log *zap.Logger) *Tracer {
	if log == nil {
		return nil
	}
	return &Tracer{log: log, run: ksuid.New().String()}
}

// Plan logs the incoming logical plan before the first pass.
func (t *Tracer) Plan(plan lp.Plan) {
	if t == nil {
		return
	}
	t.log.Debug("logical plan",
		zap.String("run", t.run),
		zap.String("plan", pretty.Sprint(plan)),
	)
}

// Pass logs the graph, and the provenance map when present, after the
// named pass.
func (t *Tracer) Pass(name string, g *qsu.Graph, auth provenance.Auth) {
	if t == nil {
		return
	}
	fields := []zap.Field{
		zap.String("run", t.run),
		zap.String("pass", name),
		zap.String("graph", g.Canon()),
	}
	if auth != nil {
		fields = append(fields, zap.String("auth", auth.String()))
	}
	t.log.Debug("pass", fields...)
}
