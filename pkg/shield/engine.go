package shield

import (
	"context"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/terrizoaguimor/kore-shield/pkg/alerting"
	"github.com/terrizoaguimor/kore-shield/pkg/blocklist"
	"github.com/terrizoaguimor/kore-shield/pkg/bruteforce"
	"github.com/terrizoaguimor/kore-shield/pkg/detection"
	"github.com/terrizoaguimor/kore-shield/pkg/domain"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/alert"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/visit"
	"github.com/terrizoaguimor/kore-shield/pkg/infra/breaker"
	"github.com/terrizoaguimor/kore-shield/pkg/infra/geo"
	"github.com/terrizoaguimor/kore-shield/pkg/infra/prometheus"
	"github.com/terrizoaguimor/kore-shield/pkg/ratelimiter"
	"github.com/terrizoaguimor/kore-shield/pkg/utils"
	"github.com/terrizoaguimor/kore-shield/pkg/visitlog"
)

const observeTimeout = 10 * time.Second

// Engine runs the per-request decision pipeline: classification first
// (pure, always runs), then the block registry, then the rate limiter.
// Store failures on the latter two never surface to the caller; they
// become degraded verdicts governed by the fail mode.
type Engine struct {
	threats  *detection.ThreatClassifier
	bots     *detection.BotClassifier
	registry *blocklist.Registry
	limiter  *ratelimiter.Limiter
	detector *bruteforce.Detector
	recorder *visitlog.Recorder
	resolver geo.Resolver
	alerts   alerting.Emitter
	logger   *logrus.Logger

	blockBreaker breaker.CircuitBreaker
	rateBreaker  breaker.CircuitBreaker

	failClosed   bool
	timeProvider func() time.Time

	scans     chan scanJob
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type scanJob struct {
	ip       string
	endpoint string
}

type Opts struct {
	FailClosed   bool
	TimeProvider func() time.Time
}

func NewEngine(
	threats *detection.ThreatClassifier,
	bots *detection.BotClassifier,
	registry *blocklist.Registry,
	limiter *ratelimiter.Limiter,
	detector *bruteforce.Detector,
	recorder *visitlog.Recorder,
	resolver geo.Resolver,
	alerts alerting.Emitter,
	logger *logrus.Logger,
	opts *Opts,
) *Engine {
	e := &Engine{
		threats:      threats,
		bots:         bots,
		registry:     registry,
		limiter:      limiter,
		detector:     detector,
		recorder:     recorder,
		resolver:     resolver,
		alerts:       alerts,
		logger:       logger,
		blockBreaker: breaker.NewCircuitBreaker("block-registry", 30*time.Second, 5),
		rateBreaker:  breaker.NewCircuitBreaker("rate-limiter", 30*time.Second, 5),
		timeProvider: time.Now,
		scans:        make(chan scanJob, 256),
		done:         make(chan struct{}),
	}
	if opts != nil {
		e.failClosed = opts.FailClosed
		if opts.TimeProvider != nil {
			e.timeProvider = opts.TimeProvider
		}
	}

	e.wg.Add(1)
	go e.scanWorker()

	return e
}

// Evaluate decides one request. It never returns an error: store trouble
// is folded into the verdict as degraded state.
func (e *Engine) Evaluate(ctx context.Context, req Request) Verdict {
	start := time.Now()
	verdict := e.evaluate(ctx, req)

	prometheus.RequestsEvaluated.WithLabelValues(verdict.label()).Inc()
	prometheus.EvaluateLatency.Observe(float64(time.Since(start).Microseconds()) / 1000.0)

	return verdict
}

func (e *Engine) evaluate(ctx context.Context, req Request) Verdict {
	bot := e.bots.DetectBot(req.UserAgent)
	analysis := e.threats.Classify(req.Path, req.Method, req.UserAgent, req.Body)

	if analysis.IsThreat {
		prometheus.ThreatsDetected.WithLabelValues(string(analysis.ThreatLevel)).Inc()
	}

	if analysis.ShouldBlock {
		if analysis.ThreatLevel == visit.LevelCritical {
			e.alerts.Emit(ctx, alert.Alert{
				Type:        alert.TypeThreatDetected,
				Severity:    alert.SeverityCritical,
				IPAddress:   &req.IP,
				Description: "critical threat signature on " + truncatePath(req.Path),
				Metadata: domain.JSONMap{
					"threats": analysis.Threats,
					"method":  req.Method,
				},
			})
		}
		return Verdict{
			Blocked:  true,
			Reason:   ReasonThreatSignature,
			Analysis: analysis,
			Bot:      bot,
		}
	}

	var blocked bool
	err := e.blockBreaker.Execute(func() error {
		var err error
		blocked, err = e.registry.IsBlocked(ctx, req.IP)
		return err
	})
	if err != nil {
		prometheus.StoreErrors.WithLabelValues("block_check").Inc()
		return e.degraded(req, analysis, bot, err, "block registry unreachable")
	}
	if blocked {
		return Verdict{
			Blocked:  true,
			Reason:   ReasonIPBlocked,
			Analysis: analysis,
			Bot:      bot,
		}
	}

	var result ratelimiter.Result
	err = e.rateBreaker.Execute(func() error {
		var err error
		result, err = e.limiter.Check(ctx, req.IP, req.endpoint())
		return err
	})
	if err != nil {
		prometheus.StoreErrors.WithLabelValues("rate_limit").Inc()
		return e.degraded(req, analysis, bot, err, "rate limit store unreachable")
	}
	if !result.Allowed {
		return Verdict{
			RateLimited: true,
			Reason:      ReasonRateLimited,
			Analysis:    analysis,
			Bot:         bot,
			RateLimit:   &result,
		}
	}

	return Verdict{
		Allowed:   true,
		Analysis:  analysis,
		Bot:       bot,
		RateLimit: &result,
	}
}

func (e *Engine) degraded(req Request, analysis detection.ThreatAnalysis, bot detection.BotMatch, err error, msg string) Verdict {
	e.logger.WithError(err).WithFields(logrus.Fields{
		"ip":          req.IP,
		"path":        truncatePath(req.Path),
		"fail_closed": e.failClosed,
	}).Warn(msg)

	v := Verdict{
		Degraded: true,
		Analysis: analysis,
		Bot:      bot,
	}
	if e.failClosed {
		v.Blocked = true
		v.Reason = ReasonStoreUnavailable
	} else {
		v.Allowed = true
	}
	return v
}

// Observe records the outcome of a served request: it appends the visit
// through the async recorder and queues the brute-force scan for the
// worker. Geo resolution is best-effort and local, so it runs inline.
func (e *Engine) Observe(req Request, verdict Verdict, statusCode int, latency time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), observeTimeout)
	location := e.resolver.Resolve(ctx, req.IP)
	cancel()

	v := visit.Visit{
		IPAddress:    req.IP,
		Path:         req.endpoint(),
		Method:       req.Method,
		Country:      location.Country,
		City:         location.City,
		Latitude:     location.Latitude,
		Longitude:    location.Longitude,
		IsBot:        verdict.Bot.IsBot,
		IsSuspicious: verdict.Analysis.IsThreat,
		ThreatLevel:  verdict.Analysis.ThreatLevel,
		Threats:      pq.StringArray(verdict.Analysis.Threats),
		CreatedAt:    e.timeProvider(),
	}
	if v.ThreatLevel == "" {
		v.ThreatLevel = visit.LevelNone
	}
	if req.UserAgent != "" {
		ua := req.UserAgent
		v.UserAgent = &ua
	}
	if statusCode > 0 {
		sc := statusCode
		v.StatusCode = &sc
	}
	if latency > 0 {
		ms := latency.Milliseconds()
		v.ResponseTimeMs = &ms
	}

	det := domain.JSONMap{}
	if verdict.Bot.IsBot {
		det["bot_name"] = verdict.Bot.Name
		det["is_ai_agent"] = verdict.Bot.AI
	} else if client := utils.ParseUserAgent(req.UserAgent, req.AcceptLanguage); client != nil {
		det["client"] = client
	}
	for k, val := range verdict.Analysis.Detail {
		det[k] = val
	}
	if verdict.Degraded {
		det["degraded"] = true
	}
	if len(det) > 0 {
		v.Detection = det
	}

	e.recorder.Record(v)

	select {
	case e.scans <- scanJob{ip: req.IP, endpoint: req.endpoint()}:
	default:
		e.logger.WithField("ip", req.IP).Warn("brute force scan queue full, skipping check")
	}
}

func (e *Engine) scanWorker() {
	defer e.wg.Done()

	for {
		select {
		case job := <-e.scans:
			e.scan(job)

		case <-e.done:
			for {
				select {
				case job := <-e.scans:
					e.scan(job)
				default:
					return
				}
			}
		}
	}
}

func (e *Engine) scan(job scanJob) {
	ctx, cancel := context.WithTimeout(context.Background(), observeTimeout)
	defer cancel()

	if _, err := e.detector.Check(ctx, job.ip, job.endpoint); err != nil {
		e.logger.WithError(err).WithField("ip", job.ip).Error("brute force check failed")
	}
}

// Close drains queued brute-force scans and stops the worker. Safe to
// call more than once.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
	})
	e.wg.Wait()
}

func truncatePath(path string) string {
	if len(path) <= 200 {
		return path
	}
	return path[:197] + "..."
}
