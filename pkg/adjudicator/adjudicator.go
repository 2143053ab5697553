// Package adjudicator implements the Ensemble Adjudicator (spec.md
// §4.3): parallel multi-model fan-out, strict structured claim
// extraction, casefold normalization, majority-intersection grouping,
// and contradiction-triggered halts.
//
// Grounded directly on
// _examples/original_source/optimized_orchestrator.py's
// execute_ensemble/_extract_claims/_normalize_claim/_adjudicate_claims:
// the same floor(n/2)+1 majority threshold, the same
// promoted-vs-minority partition, and the same "not <claim>"
// contradiction check against promoted claims.
package adjudicator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
)

// Status is the terminal adjudication outcome.
type Status string

const (
	StatusAdjudicated Status = "ADJUDICATED"
	StatusHalt        Status = "HALT"
)

// ErrAllAgentsFailed identifies the "every model in the pool returned
// an error" condition in Result.Reason. It is never returned as a Go
// error from RunEnsemble — a HALT is a first-class adjudication
// outcome the operator must see, not a process failure the caller
// should branch on via errors.Is — but it names the condition the way
// the rest of the tree names its sentinel errors.
var ErrAllAgentsFailed = errors.New("adjudicator: all models failed")

// Backend generates one candidate completion from one model. The
// Atomic Tool Executor never calls a Backend directly; only the
// adjudicator does, and only its ADJUDICATED output reaches the
// executor.
type Backend interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Claim is a single atomic assertion extracted from one agent's
// response.
type Claim struct {
	Text       string  `json:"claim"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Agent      string  `json:"-"`
}

// ClaimGroup is a set of claims that normalized to the same key.
type ClaimGroup struct {
	Claim          string
	Type           string
	Frequency      int
	Agents         []string
	MeanConfidence float64
}

// Result is the outcome of one adjudication round.
type Result struct {
	Status            Status
	Reason            string
	IntersectionTruth []ClaimGroup
	MinorityPositions []ClaimGroup
	Confidence        float64
	AgentsConsidered  int
	Threshold         int
	RawCandidates     []string
}

const claimArraySchemaURL = "https://xi.local/adjudicator/claim-array.schema.json"

var claimArraySchema = compileClaimArraySchema()

func compileClaimArraySchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	raw := `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["claim"],
			"properties": {
				"claim": {"type": "string", "minLength": 1},
				"type": {"type": "string"},
				"confidence": {"type": "number"}
			}
		}
	}`
	if err := c.AddResource(claimArraySchemaURL, strings.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("adjudicator: invalid claim-array schema: %v", err))
	}
	schema, err := c.Compile(claimArraySchemaURL)
	if err != nil {
		panic(fmt.Sprintf("adjudicator: claim-array schema failed to compile: %v", err))
	}
	return schema
}

var fold = cases.Fold()

// normalizeClaim canonicalizes a claim string for comparison: casefold,
// collapse internal whitespace, strip leading/trailing punctuation.
func normalizeClaim(text string) string {
	fields := strings.Fields(text)
	s := strings.Join(fields, " ")
	s = fold.String(s)
	return strings.Trim(s, ".,;:!?\"'-")
}

// extractionPrompt builds the strict claim-extraction instruction sent
// to the extractor model, truncating the candidate answer the same
// way the original capped it to 1500 characters.
func extractionPrompt(responseText string) string {
	text := responseText
	if len(text) > 1500 {
		text = text[:1500]
	}
	return "You are a claim extraction engine.\n" +
		"Return ONLY valid JSON array. No prose. No markdown. No code fences.\n" +
		"Input: one candidate answer.\n" +
		"Output: a JSON array of atomic claims.\n" +
		`Format: {"claim": string, "confidence": number, "type": string}` + "\n\n" +
		"TEXT:\n" + text
}

// ExtractClaims asks extractorModel to decompose one agent's response
// into atomic claims, validating the result against a strict JSON
// schema. A malformed or non-conforming response yields an empty
// slice rather than an error — one agent's extraction failure
// shouldn't abort the round.
func ExtractClaims(ctx context.Context, backend Backend, extractorModel, responseText, agentID string) []Claim {
	raw, err := backend.Generate(ctx, extractorModel, extractionPrompt(responseText))
	if err != nil {
		return nil
	}
	raw = strings.TrimSpace(raw)

	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil
	}
	if err := claimArraySchema.Validate(decoded); err != nil {
		return nil
	}

	var parsed []Claim
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil
	}

	out := make([]Claim, 0, len(parsed))
	for _, c := range parsed {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		if c.Type == "" {
			c.Type = "observation"
		}
		if c.Confidence == 0 {
			c.Confidence = 0.5
		}
		c.Agent = agentID
		out = append(out, c)
	}
	return out
}

// Adjudicate partitions claims into promoted (intersection truth) and
// minority groups by a floor(n/2)+1 majority threshold over
// totalAgents, then halts if no claim reached the threshold or if any
// claim in the swarm negates one that did.
func Adjudicate(claims []Claim, totalAgents int) Result {
	threshold := int(math.Floor(float64(totalAgents)/2)) + 1

	type groupState struct {
		canonical   string
		claimType   string
		agents      map[string]bool
		confidences []float64
	}
	groups := make(map[string]*groupState)

	for _, c := range claims {
		key := normalizeClaim(c.Text)
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &groupState{canonical: c.Text, claimType: c.Type, agents: map[string]bool{}}
			groups[key] = g
		}
		g.agents[c.Agent] = true
		g.confidences = append(g.confidences, c.Confidence)
	}

	var promoted, minority []ClaimGroup
	for _, g := range groups {
		agents := make([]string, 0, len(g.agents))
		for a := range g.agents {
			agents = append(agents, a)
		}
		sort.Strings(agents)

		sum := 0.0
		for _, c := range g.confidences {
			sum += c
		}
		mean := round3(sum / float64(len(g.confidences)))

		entry := ClaimGroup{
			Claim:          g.canonical,
			Type:           g.claimType,
			Frequency:      len(agents),
			Agents:         agents,
			MeanConfidence: mean,
		}
		if entry.Frequency >= threshold {
			promoted = append(promoted, entry)
		} else {
			minority = append(minority, entry)
		}
	}

	hasContradiction := false
	all := append(append([]ClaimGroup(nil), promoted...), minority...)
	for _, p := range promoted {
		pKey := normalizeClaim(p.Claim)
		negation := "not " + pKey
		for _, a := range all {
			aKey := normalizeClaim(a.Claim)
			if aKey == negation || (strings.HasPrefix(pKey, "not ") && pKey[4:] == aKey) {
				hasContradiction = true
				break
			}
		}
		if hasContradiction {
			break
		}
	}

	if len(promoted) == 0 || hasContradiction {
		reason := "Contradictory claims in intersection"
		disagreements := promoted
		if len(promoted) == 0 {
			reason = "Equilibrium not reached"
			disagreements = minority
		}
		return Result{
			Status:            StatusHalt,
			Reason:            reason,
			IntersectionTruth: nil,
			MinorityPositions: disagreements,
			AgentsConsidered:  totalAgents,
			Threshold:         threshold,
		}
	}

	confSum := 0.0
	for _, p := range promoted {
		confSum += p.MeanConfidence
	}
	overall := round3(confSum / float64(len(promoted)))

	return Result{
		Status:            StatusAdjudicated,
		IntersectionTruth: promoted,
		MinorityPositions: minority,
		Confidence:        overall,
		AgentsConsidered:  totalAgents,
		Threshold:         threshold,
	}
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// generation is one model's raw completion (or failure) from the
// parallel fan-out stage.
type generation struct {
	model    string
	response string
	err      error
}

// RunEnsemble fans prompt out to every model via backend, extracts
// claims from every successful response using extractorModel, and
// adjudicates the pooled claims. Generation runs with bounded
// concurrency via errgroup so a slow or wedged model can't starve the
// others.
func RunEnsemble(ctx context.Context, backend Backend, extractorModel string, models []string, prompt string) (Result, error) {
	return RunEnsembleThrottled(ctx, backend, extractorModel, models, prompt, nil)
}

// RunEnsembleThrottled is RunEnsemble with an optional resource
// throttle gating each model's generation call. A nil throttle behaves
// exactly like RunEnsemble (full concurrency, no idleness probing).
func RunEnsembleThrottled(ctx context.Context, backend Backend, extractorModel string, models []string, prompt string, throttle *Throttle) (Result, error) {
	if len(models) == 0 {
		return Result{}, fmt.Errorf("adjudicator: no models configured")
	}

	results := make([]generation, len(models))
	g, gctx := errgroup.WithContext(ctx)
	for i, model := range models {
		i, model := i, model
		g.Go(func() error {
			if err := throttle.Acquire(gctx); err != nil {
				results[i] = generation{model: model, err: err}
				return nil
			}
			resp, err := backend.Generate(gctx, model, prompt)
			results[i] = generation{model: model, response: resp, err: err}
			return nil // a single model's failure doesn't cancel the round
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var successful []generation
	for _, r := range results {
		if r.err == nil {
			successful = append(successful, r)
		}
	}
	if len(successful) == 0 {
		return Result{Status: StatusHalt, Reason: "All models failed"}, nil
	}

	var mu sync.Mutex
	var allClaims []Claim
	eg, egctx := errgroup.WithContext(ctx)
	for _, r := range successful {
		r := r
		eg.Go(func() error {
			claims := ExtractClaims(egctx, backend, extractorModel, r.response, r.model)
			mu.Lock()
			allClaims = append(allClaims, claims...)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}

	if len(allClaims) == 0 {
		raw := make([]string, 0, len(successful))
		for _, r := range successful {
			raw = append(raw, truncate(r.response, 300))
		}
		return Result{Status: StatusHalt, Reason: "Structured claim extraction failed for all agents", RawCandidates: raw}, nil
	}

	return Adjudicate(allClaims, len(successful)), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
