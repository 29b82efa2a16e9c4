package llm

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/civicassist/civicassist/internal/domain"
	"github.com/civicassist/civicassist/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterLLMMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockTier struct {
	name     string
	reply    string
	err      error
	calls    int
	lastJSON bool
}

func (m *mockTier) Tier() string { return m.name }

func (m *mockTier) ChatCompletion(_ context.Context, _ []domain.ChatMessage, jsonMode bool) (string, error) {
	m.calls++
	m.lastJSON = jsonMode
	return m.reply, m.err
}

const validReply = `{"overall_status": "compliant", "confidence_score": 90, "issues": [], "checklist": []}`

func fields() map[string]string {
	return map[string]string{"industry_name": "Textile mill", "water_source": "Borewell"}
}

func TestGenerateAnalysis_PrimarySucceeds(t *testing.T) {
	primary := &mockTier{name: "primary", reply: validReply}
	secondary := &mockTier{name: "secondary", reply: validReply}
	g := New(primary, secondary, zap.NewNop())

	a := g.GenerateAnalysis(context.Background(), fields(), []string{"Regulation text."})

	if a.OverallStatus != domain.StatusCompliant {
		t.Errorf("status = %q", a.OverallStatus)
	}
	if primary.calls != 1 {
		t.Errorf("primary calls = %d", primary.calls)
	}
	if secondary.calls != 0 {
		t.Errorf("secondary must not be called when primary succeeds, calls = %d", secondary.calls)
	}
	if !primary.lastJSON {
		t.Error("analysis calls must request JSON mode")
	}

	stats := g.GetStats()
	if stats.PrimaryCalls != 1 || stats.SecondaryCalls != 0 || stats.FallbackCalls != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestGenerateAnalysis_EscalatesOnTransportFailure(t *testing.T) {
	primary := &mockTier{name: "primary", err: errors.New("connection refused")}
	secondary := &mockTier{name: "secondary", reply: validReply}
	g := New(primary, secondary, zap.NewNop())

	a := g.GenerateAnalysis(context.Background(), fields(), nil)

	if a.OverallStatus != domain.StatusCompliant {
		t.Errorf("status = %q, expected secondary reply", a.OverallStatus)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("calls primary=%d secondary=%d, expected one each (no retries)", primary.calls, secondary.calls)
	}
}

func TestGenerateAnalysis_EscalatesOnInvalidReply(t *testing.T) {
	// A schema-invalid reply escalates exactly like a transport failure.
	primary := &mockTier{name: "primary", reply: "I think the application looks fine overall."}
	secondary := &mockTier{name: "secondary", reply: validReply}
	g := New(primary, secondary, zap.NewNop())

	a := g.GenerateAnalysis(context.Background(), fields(), nil)

	if a.OverallStatus != domain.StatusCompliant {
		t.Errorf("status = %q, expected secondary reply", a.OverallStatus)
	}
	if secondary.calls != 1 {
		t.Errorf("secondary calls = %d", secondary.calls)
	}
}

func TestGenerateAnalysis_SafeDefaultWhenAllFail(t *testing.T) {
	primary := &mockTier{name: "primary", err: errors.New("down")}
	secondary := &mockTier{name: "secondary", reply: `{"broken": true}`}
	g := New(primary, secondary, zap.NewNop())

	a := g.GenerateAnalysis(context.Background(), fields(), nil)

	if a.OverallStatus != domain.StatusNeedsHumanReview {
		t.Errorf("status = %q, expected needs_human_review", a.OverallStatus)
	}
	if a.ConfidenceScore != 0 {
		t.Errorf("confidence = %f", a.ConfidenceScore)
	}
	if len(a.Issues) != 1 || a.Issues[0].RiskLevel != domain.SeverityHigh {
		t.Errorf("safe default issues = %+v", a.Issues)
	}

	stats := g.GetStats()
	if stats.FallbackCalls != 1 {
		t.Errorf("fallback calls = %d", stats.FallbackCalls)
	}
}

func TestGenerateAnalysis_SecondaryDisabled(t *testing.T) {
	primary := &mockTier{name: "primary", err: errors.New("down")}
	g := New(primary, nil, zap.NewNop())

	a := g.GenerateAnalysis(context.Background(), fields(), nil)

	if a.OverallStatus != domain.StatusNeedsHumanReview {
		t.Errorf("status = %q, expected safe default without secondary", a.OverallStatus)
	}

	stats := g.GetStats()
	if stats.SecondaryCalls != 0 {
		t.Errorf("secondary calls = %d with disabled tier", stats.SecondaryCalls)
	}
	if stats.FallbackCalls != 1 {
		t.Errorf("fallback calls = %d", stats.FallbackCalls)
	}
}

func TestChat_PrimarySucceeds(t *testing.T) {
	primary := &mockTier{name: "primary", reply: "You need a fire NOC."}
	g := New(primary, nil, zap.NewNop())

	reply, err := g.Chat(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if reply != "You need a fire NOC." {
		t.Errorf("reply = %q", reply)
	}
	if primary.lastJSON {
		t.Error("chat must not request JSON mode")
	}
}

func TestChat_EscalatesAndFails(t *testing.T) {
	primary := &mockTier{name: "primary", err: errors.New("down")}
	secondary := &mockTier{name: "secondary", err: errors.New("also down")}
	g := New(primary, secondary, zap.NewNop())

	_, err := g.Chat(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}})
	if err == nil {
		t.Fatal("expected error when every tier fails")
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("calls primary=%d secondary=%d", primary.calls, secondary.calls)
	}
}

func TestBuildAnalysisMessages_Deterministic(t *testing.T) {
	f := map[string]string{
		"water_source":  "Borewell",
		"industry_name": "Textile mill",
		"drainage":      "Closed",
	}
	regs := []string{"Rule one.", "Rule two."}

	first := buildAnalysisMessages(f, regs)
	second := buildAnalysisMessages(f, regs)

	if len(first) != len(second) {
		t.Fatalf("message counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Content != second[i].Content {
			t.Errorf("message %d differs between identical calls", i)
		}
	}

	if first[0].Role != domain.RoleSystem {
		t.Errorf("first message role = %q", first[0].Role)
	}
	user := first[len(first)-1].Content
	if !strings.Contains(user, "REGULATION 1:") || !strings.Contains(user, "REGULATION 2:") {
		t.Errorf("user prompt missing numbered regulations:\n%s", user)
	}
	if !strings.Contains(user, "Textile mill") {
		t.Errorf("user prompt missing application fields:\n%s", user)
	}
}
