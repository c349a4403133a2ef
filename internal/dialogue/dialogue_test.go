package dialogue

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-voice-assistant/internal/action"
	"inventory-voice-assistant/internal/catalog"
	"inventory-voice-assistant/internal/classify"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func TestAddExchange_BoundedFIFO(t *testing.T) {
	var s State
	for i := 0; i < 10; i++ {
		s = s.AddExchange(RoleUser, fmt.Sprintf("msg %d", i), t0.Add(time.Duration(i)*time.Second))
		assert.LessOrEqual(t, len(s.History()), MaxHistory)
	}

	h := s.History()
	require.Len(t, h, MaxHistory)
	assert.Equal(t, "msg 4", h[0].Text)
	assert.Equal(t, "msg 9", h[5].Text)
}

func TestAddExchange_DoesNotAlias(t *testing.T) {
	base := State{}.AddExchange(RoleUser, "a", t0)
	left := base.AddExchange(RoleAssistant, "b", t0)
	right := base.AddExchange(RoleAssistant, "c", t0)

	assert.Len(t, base.History(), 1)
	assert.Equal(t, "b", left.History()[1].Text)
	assert.Equal(t, "c", right.History()[1].Text)

	h := left.History()
	h[0].Text = "mutated"
	assert.Equal(t, "a", left.History()[0].Text)
}

func TestPending_Invariant(t *testing.T) {
	var s State
	assert.False(t, s.AwaitingConfirmation())
	_, ok := s.Pending()
	assert.False(t, ok)

	params := map[string]string{"to": "m1"}
	s = s.WithPending(PendingAction{Action: action.Action{Type: action.Email, Params: params}, Risk: action.RiskHigh})
	params["to"] = "changed"

	assert.True(t, s.AwaitingConfirmation())
	p, ok := s.Pending()
	require.True(t, ok)
	assert.Equal(t, "m1", p.Action.Param("to"))
	assert.Equal(t, action.RiskHigh, p.Risk)

	cleared := s.ClearPending()
	assert.False(t, cleared.AwaitingConfirmation())
	assert.True(t, s.AwaitingConfirmation(), "original state unchanged")
}

func TestWithSpeaker_Merges(t *testing.T) {
	s := State{}.WithSpeaker(classify.SpeakerMaintainer).WithSpeaker(classify.SpeakerUnknown)
	assert.Equal(t, classify.SpeakerMaintainer, s.Speaker())

	s = s.WithSpeaker(classify.SpeakerOperator)
	assert.Equal(t, classify.SpeakerOperator, s.Speaker())
}

func TestFocusAndResults(t *testing.T) {
	results := []catalog.Product{{ID: "p1", Name: "Frigo bar"}, {ID: "p2", Name: "Frigo cucina"}}
	s := State{}.WithSearchResults(results).WithFocus(catalog.Product{ID: "p1", Name: "Frigo bar", Category: "elettrodomestici", Brand: "Liebherr"})
	results[0].Name = "changed"

	assert.Equal(t, "Frigo bar", s.LastSearchResults()[0].Name)
	f, ok := s.Focus()
	require.True(t, ok)
	assert.Equal(t, "p1", f.ID)
	assert.Equal(t, `"Frigo bar" (id p1), category elettrodomestici, Liebherr`, s.FocusSummary())

	_, ok = s.ClearFocus().Focus()
	assert.False(t, ok)
	assert.Empty(t, State{}.FocusSummary())
}

func TestReset(t *testing.T) {
	task, err := NewTask(KindProduct, t0)
	require.NoError(t, err)
	s := State{}.
		AddExchange(RoleUser, "x", t0).
		WithTask(task).
		WithPending(PendingAction{Action: action.Action{Type: action.Create}, Risk: action.RiskMedium})

	assert.Equal(t, State{}, s.Reset())
}

func TestNewTask(t *testing.T) {
	for _, kind := range []TaskKind{KindProduct, KindMaintenance, KindMaintainer} {
		task, err := NewTask(kind, t0)
		require.NoError(t, err)
		assert.Equal(t, kind, task.Kind())
		assert.Equal(t, t0, task.StartedAt())
		assert.False(t, IsComplete(task))
	}

	_, err := NewTask("spaceship", t0)
	assert.Error(t, err)
	assert.False(t, IsComplete(nil))
}

func TestParseTaskKind(t *testing.T) {
	k, ok := ParseTaskKind(" Manutenzione ")
	assert.True(t, ok)
	assert.Equal(t, KindMaintenance, k)

	_, ok = ParseTaskKind("boh")
	assert.False(t, ok)
}

func TestMerge_ProductCreation(t *testing.T) {
	task, _ := NewTask(KindProduct, t0)

	task = Merge(task, map[string]string{"name": "Frigo bar", "category": "", "room": "Camera 12", "color": "white"}, false)
	assert.Equal(t, []string{"category"}, task.RequiredMissing())
	assert.Equal(t, map[string]string{"name": "Frigo bar", "location": "Camera 12"}, task.Fields())

	task = Merge(task, map[string]string{"name": "Frigorifero", "category": "elettrodomestici"}, false)
	assert.True(t, IsComplete(task))
	assert.Equal(t, "Frigo bar", task.(ProductCreation).Name, "existing value kept")

	task = Merge(task, map[string]string{"name": "Frigorifero"}, true)
	assert.Equal(t, "Frigorifero", task.(ProductCreation).Name, "overwrite replaces")
}

func TestMerge_DoesNotMutateOriginal(t *testing.T) {
	orig, _ := NewTask(KindMaintenance, t0)
	merged := Merge(orig, map[string]string{"product": "Frigo bar"}, false)

	assert.Empty(t, orig.Fields())
	assert.Equal(t, "Frigo bar", merged.(MaintenanceRegistration).Product)
	assert.Equal(t, []string{"type", "description"}, merged.RequiredMissing())
}

func TestMaintainerCreation_Contact(t *testing.T) {
	task, _ := NewTask(KindMaintainer, t0)
	task = Merge(task, map[string]string{"name": "Frigotecnica"}, false)
	assert.Equal(t, []string{"contact"}, task.RequiredMissing())

	task = Merge(task, map[string]string{"telephone": "+39 055 123456"}, false)
	assert.True(t, IsComplete(task))
}

func TestSummary(t *testing.T) {
	task, _ := NewTask(KindMaintenance, t0)
	assert.Equal(t, "maintenance: nothing collected yet", Summary(task))

	task = Merge(task, map[string]string{"description": "cambio guarnizione", "product": "Frigo bar"}, false)
	assert.Equal(t, `maintenance: product="Frigo bar" description="cambio guarnizione"`, Summary(task))
	assert.Empty(t, Summary(nil))
}

func TestMerge_CorrectionClearsStaleLink(t *testing.T) {
	task, _ := NewTask(KindProduct, t0)
	task = Merge(task, map[string]string{"location": "Camera 12", "location_id": "l1"}, false)
	assert.Equal(t, "l1", task.(ProductCreation).LocationID)

	task = Merge(task, map[string]string{"location": "Magazzino"}, true)
	assert.Equal(t, "Magazzino", task.(ProductCreation).Location)
	assert.Empty(t, task.(ProductCreation).LocationID)

	task = Merge(task, map[string]string{"location": "Camera 14", "location_id": "l3"}, true)
	assert.Equal(t, "l3", task.(ProductCreation).LocationID)
}

func TestMerge_AliasedLinkKeepsID(t *testing.T) {
	// map order varies between runs; repeat so both orders are covered
	for i := 0; i < 50; i++ {
		task, _ := NewTask(KindMaintenance, t0)
		task = Merge(task, map[string]string{"supplier": "Medika Srl", "supplier_id": "m1"}, true)
		m := task.(MaintenanceRegistration)
		require.Equal(t, "Medika Srl", m.Maintainer)
		require.Equal(t, "m1", m.MaintainerID)
	}
}

func TestMerge_CanonicalKeyBeatsAlias(t *testing.T) {
	for i := 0; i < 20; i++ {
		task, _ := NewTask(KindMaintenance, t0)
		task = Merge(task, map[string]string{"supplier": "MediKal", "maintainer": "Medika Srl"}, false)
		require.Equal(t, "Medika Srl", task.(MaintenanceRegistration).Maintainer)
	}
}

func TestLinkQuestions(t *testing.T) {
	task, _ := NewTask(KindMaintenance, t0)
	medika := LinkQuestion{Field: "maintainer", Query: "Medika", Candidates: []LinkChoice{{ID: "m1", Name: "Medika Srl"}, {ID: "m2", Name: "MediKal"}}}
	frigo := LinkQuestion{Field: "product", Query: "frigo", Candidates: []LinkChoice{{ID: "p1", Name: "Frigo bar"}}}

	s := State{}.WithTask(task).WithLinkQuestion(medika).WithLinkQuestion(frigo)
	q, ok := s.OpenLinkQuestion()
	require.True(t, ok)
	assert.Equal(t, "maintainer", q.Field)

	narrowed := LinkQuestion{Field: "maintainer", Query: "Medika S", Candidates: []LinkChoice{{ID: "m1", Name: "Medika Srl"}}}
	s2 := s.WithLinkQuestion(narrowed)
	qs := s2.LinkQuestions()
	require.Len(t, qs, 2)
	assert.Equal(t, narrowed, qs[0], "replaced in place")
	assert.Len(t, s.LinkQuestions()[0].Candidates, 2, "original untouched")

	s3 := s2.WithoutLinkQuestion("maintainer")
	q, _ = s3.OpenLinkQuestion()
	assert.Equal(t, "product", q.Field)

	assert.Empty(t, s.WithTask(nil).LinkQuestions())
	other, _ := NewTask(KindProduct, t0)
	assert.Empty(t, s.WithTask(other).LinkQuestions())
	assert.Len(t, s.WithTask(Merge(task, map[string]string{"type": "ordinaria"}, false)).LinkQuestions(), 2)
}
