package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/oarkflow/xid"
	"go.uber.org/zap"

	"github.com/oarkflow/storyarc/corpus"
	"github.com/oarkflow/storyarc/derive"
	"github.com/oarkflow/storyarc/nlp/sentiment"
	"github.com/oarkflow/storyarc/nlp/stopwords"
	"github.com/oarkflow/storyarc/nlp/tokenizer"
	"github.com/oarkflow/storyarc/pkg/logging"
	"github.com/oarkflow/storyarc/pkg/telemetry"
	"github.com/oarkflow/storyarc/position"
)

// Stage keys.
const (
	NodeLoad        = "load"
	NodeAggregate   = "aggregate"
	NodeEdges       = "edge_words"
	NodePeaks       = "peak_deciles"
	NodeProfiles    = "profiles"
	NodeHasLexicon  = "has_lexicon"
	NodeSentiment   = "sentiment_curve"
	NodeNoSentiment = "skip_sentiment"
)

// Params tune a run. A Threshold or TopK below 1 selects the package default.
type Params struct {
	Threshold         int               `json:"threshold" msgpack:"threshold"`
	TopK              int               `json:"top_k" msgpack:"top_k"`
	SentimentMinCount int               `json:"sentiment_min_count" msgpack:"sentiment_min_count"`
	Workers           int               `json:"workers" msgpack:"workers"`
	Tokenizer         tokenizer.Options `json:"tokenizer" msgpack:"tokenizer"`
	ProfileWords      []string          `json:"profile_words" msgpack:"profile_words"`
}

// Inputs names the corpus files. Readers, when set, take precedence.
type Inputs struct {
	PlotsPath  string
	TitlesPath string
	Plots      io.Reader
	Titles     io.Reader
}

// Report is everything one run produced, ready for export.
type Report struct {
	RunID      string               `json:"run_id" msgpack:"run_id"`
	CreatedAt  time.Time            `json:"created_at" msgpack:"created_at"`
	Params     Params               `json:"params" msgpack:"params"`
	Corpus     corpus.Summary       `json:"corpus" msgpack:"corpus"`
	Stories    int                  `json:"stories" msgpack:"stories"`
	Tokens     int                  `json:"tokens" msgpack:"tokens"`
	Vocabulary int                  `json:"vocabulary" msgpack:"vocabulary"`
	Words      []position.WordStat  `json:"words" msgpack:"words"`
	Edges      derive.Edges         `json:"edges" msgpack:"edges"`
	Peaks      []derive.Peak        `json:"peaks" msgpack:"peaks"`
	Sentiment  *derive.Curve        `json:"sentiment,omitempty" msgpack:"sentiment,omitempty"`
	Profiles   []derive.WordProfile `json:"profiles" msgpack:"profiles"`
	Stages     []string             `json:"stages" msgpack:"stages"`
}

type Pipeline struct {
	dag      *DAG
	params   Params
	lexicon  *sentiment.Lexicon
	stop     stopwords.Set
	logger   *zap.Logger
	recorder *telemetry.Recorder
}

type Option func(*Pipeline)

// WithLexicon enables the sentiment curve.
func WithLexicon(lex *sentiment.Lexicon) Option {
	return func(p *Pipeline) { p.lexicon = lex }
}

// WithStopWords leaves the given words out of edge words and peak deciles.
// They stay in the word table and the sentiment join.
func WithStopWords(s stopwords.Set) Option {
	return func(p *Pipeline) { p.stop = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = logging.OrNop(l) }
}

func WithRecorder(r *telemetry.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

func New(params Params, opts ...Option) *Pipeline {
	if params.Threshold <= 0 {
		params.Threshold = position.DefaultThreshold
	}
	if params.TopK <= 0 {
		params.TopK = derive.DefaultTopK
	}
	// Query words must match the vocabulary the tokenizer produces.
	params.ProfileWords = params.Tokenizer.Normalize(params.ProfileWords)
	p := &Pipeline{params: params, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	p.stop = p.stop.Normalize(params.Tokenizer)
	p.dag = p.build()
	return p
}

func (p *Pipeline) build() *DAG {
	d := NewDAG()
	d.AddNode(NodeLoad, "Load corpus", p.load, true)
	d.AddNode(NodeAggregate, "Aggregate positions", p.aggregate)
	d.AddNode(NodeEdges, "Edge words", p.edges)
	d.AddNode(NodePeaks, "Peak deciles", p.peaks)
	d.AddNode(NodeProfiles, "Word profiles", p.profiles)
	d.AddNode(NodeHasLexicon, "Lexicon present?", p.hasLexicon)
	d.AddNode(NodeSentiment, "Sentiment curve", p.sentiment)
	d.AddNode(NodeNoSentiment, "Skip sentiment", func(context.Context, any) Result { return Result{} })

	d.AddEdge("load to aggregate", SimpleEdge, NodeLoad, []string{NodeAggregate})
	d.AddEdge("derived queries", SimpleEdge, NodeAggregate, []string{NodeEdges, NodePeaks, NodeProfiles})
	d.AddEdge("sentiment", ConditionEdge, NodeAggregate, nil, map[ID]Condition{
		NodeHasLexicon: {"yes": NodeSentiment, "no": NodeNoSentiment},
	})
	return d
}

// Run executes every stage and assembles the report.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (report *Report, err error) {
	runID := xid.New().String()
	log := p.logger.With(zap.String("run_id", runID))
	start := time.Now()
	defer func() { p.recorder.Outcome(err) }()

	log.Info("run started",
		zap.Int("threshold", p.params.Threshold),
		zap.Int("top_k", p.params.TopK),
		zap.Bool("sentiment", p.lexicon != nil))

	tm, err := p.dag.ProcessTask(ctx, in)
	if err != nil {
		log.Error("run failed", zap.Error(err))
		return nil, err
	}

	c, _ := Output[*corpus.Corpus](tm, NodeLoad)
	agg, _ := Output[*position.Result](tm, NodeAggregate)
	report = &Report{
		RunID:      runID,
		CreatedAt:  start.UTC(),
		Params:     p.params,
		Corpus:     c.Summary(),
		Stories:    agg.Stories,
		Tokens:     agg.Tokens,
		Vocabulary: len(agg.Vocabulary),
		Words:      agg.Words,
		Stages:     tm.Visited(),
	}
	report.Corpus.EmptyStories = agg.EmptyStories
	report.Edges, _ = Output[derive.Edges](tm, NodeEdges)
	report.Peaks, _ = Output[[]derive.Peak](tm, NodePeaks)
	report.Profiles, _ = Output[[]derive.WordProfile](tm, NodeProfiles)
	if curve, ok := Output[derive.Curve](tm, NodeSentiment); ok {
		report.Sentiment = &curve
	}
	p.recorder.Corpus(report.Stories, report.Corpus.EmptyStories, report.Tokens, report.Vocabulary, len(report.Words))

	log.Info("run finished",
		zap.Int("stories", report.Stories),
		zap.Int("tokens", report.Tokens),
		zap.Int("words", len(report.Words)),
		zap.Duration("elapsed", time.Since(start)))
	return report, nil
}

func (p *Pipeline) load(_ context.Context, payload any) Result {
	defer p.recorder.Stage(NodeLoad)()
	in, ok := payload.(Inputs)
	if !ok {
		return Result{Error: fmt.Errorf("unexpected payload %T", payload)}
	}
	var (
		c   *corpus.Corpus
		err error
	)
	if in.Plots != nil && in.Titles != nil {
		c, err = corpus.Load(in.Plots, in.Titles)
	} else {
		c, err = corpus.LoadFiles(in.PlotsPath, in.TitlesPath)
	}
	if err != nil {
		return Result{Error: err}
	}
	sum := c.Summary()
	p.logger.Debug("corpus loaded",
		zap.Int("stories", sum.Stories),
		zap.Int("lines", sum.Lines),
		zap.Int("blank", sum.EmptyStories))
	return Result{Payload: c}
}

func (p *Pipeline) aggregate(ctx context.Context, payload any) Result {
	defer p.recorder.Stage(NodeAggregate)()
	c, ok := payload.(*corpus.Corpus)
	if !ok {
		return Result{Error: fmt.Errorf("unexpected payload %T", payload)}
	}
	res, err := position.Aggregate(ctx, c.Stories, position.Options{
		Threshold: p.params.Threshold,
		Workers:   p.params.Workers,
		Tokenizer: p.params.Tokenizer,
		Logger:    p.logger,
	})
	if err != nil {
		return Result{Error: err}
	}
	return Result{Payload: res}
}

func (p *Pipeline) edges(_ context.Context, payload any) Result {
	defer p.recorder.Stage(NodeEdges)()
	res := payload.(*position.Result)
	return Result{Payload: derive.EdgeWords(p.ranked(res.Words), p.params.Threshold, p.params.TopK)}
}

func (p *Pipeline) peaks(_ context.Context, payload any) Result {
	defer p.recorder.Stage(NodePeaks)()
	res := payload.(*position.Result)
	return Result{Payload: derive.PeakDeciles(p.ranked(res.Words), p.params.Threshold)}
}

func (p *Pipeline) ranked(words []position.WordStat) []position.WordStat {
	if len(p.stop) == 0 {
		return words
	}
	out := make([]position.WordStat, 0, len(words))
	for _, w := range words {
		if !p.stop.Contains(w.Word) {
			out = append(out, w)
		}
	}
	return out
}

func (p *Pipeline) profiles(_ context.Context, payload any) Result {
	res := payload.(*position.Result)
	return Result{Payload: derive.Profile(res.Vocabulary, p.params.ProfileWords...)}
}

func (p *Pipeline) hasLexicon(context.Context, any) Result {
	if p.lexicon == nil {
		return Result{Status: "no"}
	}
	return Result{Status: "yes"}
}

func (p *Pipeline) sentiment(_ context.Context, payload any) Result {
	defer p.recorder.Stage(NodeSentiment)()
	res := payload.(*position.Result)
	return Result{Payload: derive.SentimentCurve(res.Vocabulary, p.lexicon, p.params.SentimentMinCount)}
}
