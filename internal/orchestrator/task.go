package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"inventory-voice-assistant/internal/action"
	"inventory-voice-assistant/internal/catalog"
	"inventory-voice-assistant/internal/classify"
	"inventory-voice-assistant/internal/dialogue"
	"inventory-voice-assistant/internal/guard"
	"inventory-voice-assistant/internal/resolver"
)

// linkedFields lists, per task kind, the fields that refer to catalog
// records and carry a "<field>_id" next to them.
var linkedFields = map[dialogue.TaskKind][]string{
	dialogue.KindProduct:     {"location", "assignee"},
	dialogue.KindMaintenance: {"product", "maintainer"},
}

// applyTaskDirective starts or updates the active task from a task_*
// directive. Linked entities are resolved before the fields are merged.
func (o *Orchestrator) applyTaskDirective(ctx context.Context, st dialogue.State, act action.Action, text string) (dialogue.State, Outcome) {
	kindName := act.Param("kind")
	if kindName == "" {
		kindName = act.Param("task")
	}
	params := make(map[string]string, len(act.Params))
	for k, v := range act.Params {
		params[k] = v
	}
	delete(params, "kind")
	delete(params, "task")
	delete(params, "query")
	fields := dialogue.CanonicalFields(params)

	task := st.Task()
	kind, kindOK := dialogue.ParseTaskKind(kindName)
	if kindOK && (task == nil || (act.Type == action.TaskStart && task.Kind() != kind)) {
		var err error
		task, err = dialogue.NewTask(kind, o.now())
		if err != nil {
			o.log.Error().Ctx(ctx).Err(err).Msg("cannot start task")
			return st, reply(text)
		}
	}
	if task == nil {
		o.log.Debug().Ctx(ctx).Str("type", string(act.Type)).Str("kind", kindName).Msg("task directive without a task, ignoring")
		return st, reply(text)
	}

	overwrite := act.Type == action.TaskCorrect
	links := o.resolveLinks(ctx, task, fields, overwrite)
	task = dialogue.Merge(task, fields, overwrite)
	st = st.WithTask(task)
	for _, field := range links.settled {
		st = st.WithoutLinkQuestion(field)
	}
	for _, q := range links.questions {
		st = st.WithLinkQuestion(q)
	}

	return st, nextPrompt(st, joinText(text, strings.Join(links.notes, " ")))
}

type linkReport struct {
	notes     []string
	questions []dialogue.LinkQuestion
	settled   []string
}

// resolveLinks replaces free-text entity fields with catalog names and ids
// where the catalog has a clear match. Fields the catalog cannot decide on
// are removed from fields and returned as questions; names the catalog does
// not know stay as free text.
func (o *Orchestrator) resolveLinks(ctx context.Context, task dialogue.Task, fields map[string]string, overwrite bool) linkReport {
	var rep linkReport
	if o.resolver == nil {
		return rep
	}
	existing := task.Fields()
	for _, field := range linkedFields[task.Kind()] {
		q := fields[field]
		if q == "" || (existing[field] != "" && !overwrite) {
			continue
		}
		lo := o.resolveField(ctx, field, q)
		switch {
		case lo.choice != nil:
			fields[field] = lo.choice.Name
			fields[field+"_id"] = lo.choice.ID
			rep.settled = append(rep.settled, field)
		case lo.question != nil:
			delete(fields, field)
			delete(fields, field+"_id")
			rep.questions = append(rep.questions, *lo.question)
		default:
			delete(fields, field+"_id")
			rep.settled = append(rep.settled, field)
			if lo.note != "" {
				rep.notes = append(rep.notes, "For the "+field+", "+lo.note)
			}
		}
	}
	return rep
}

// linkOutcome is the result of resolving one linked field: a choice, a
// question for the user, or neither with an optional note.
type linkOutcome struct {
	choice   *dialogue.LinkChoice
	question *dialogue.LinkQuestion
	note     string
}

func (o *Orchestrator) resolveField(ctx context.Context, field, query string) linkOutcome {
	switch field {
	case "location":
		return outcomeOf(field, o.resolver.Location(ctx, query), func(l catalog.Location) string { return l.ID })
	case "assignee":
		return outcomeOf(field, o.resolver.Assignee(ctx, query), func(a catalog.Assignee) string { return a.ID })
	case "product":
		return outcomeOf(field, o.resolver.Product(ctx, query), func(p catalog.Product) string { return p.ID })
	case "maintainer":
		return outcomeOf(field, o.resolver.Maintainer(ctx, query), func(m catalog.Maintainer) string { return m.ID })
	}
	return linkOutcome{}
}

func outcomeOf[T resolver.Entity](field string, res resolver.Result[T], id func(T) string) linkOutcome {
	choice := func(e T) dialogue.LinkChoice {
		return dialogue.LinkChoice{ID: id(e), Name: e.DisplayName(), Alt: e.AltFields()}
	}
	switch r := res.(type) {
	case resolver.Found[T]:
		c := choice(r.Entity)
		return linkOutcome{choice: &c}
	case resolver.NeedsConfirmation[T]:
		return linkOutcome{question: &dialogue.LinkQuestion{
			Field:      field,
			Query:      r.Query,
			Candidates: []dialogue.LinkChoice{choice(r.Candidate)},
		}}
	case resolver.Ambiguous[T]:
		cs := make([]dialogue.LinkChoice, len(r.Candidates))
		for i, c := range r.Candidates {
			cs[i] = choice(c)
		}
		return linkOutcome{question: &dialogue.LinkQuestion{Field: field, Query: r.Query, Candidates: cs}}
	case resolver.NotFound[T]:
		return linkOutcome{note: fmt.Sprintf("%q is not in the catalog yet.", r.Query)}
	}
	return linkOutcome{}
}

// askLink phrases an open link question.
func askLink(q dialogue.LinkQuestion) string {
	if len(q.Candidates) == 1 {
		return fmt.Sprintf("did you mean %s?", q.Candidates[0].Name)
	}
	names := make([]string, len(q.Candidates))
	for i, c := range q.Candidates {
		names[i] = c.Name
	}
	return fmt.Sprintf("which one: %s?", strings.Join(names, ", "))
}

// answerLink reads the utterance as the answer to the open link question q.
// It reports false when the utterance is about something else.
func (o *Orchestrator) answerLink(ctx context.Context, st dialogue.State, q dialogue.LinkQuestion, text string) (dialogue.State, Outcome, bool) {
	if st.Task() == nil {
		return st.WithoutLinkQuestion(q.Field), Outcome{}, false
	}

	answer := o.classifier.Confirmation(text)
	switch {
	case answer == classify.AnswerNo:
		st = st.WithoutLinkQuestion(q.Field)
		return st, nextPrompt(st, fmt.Sprintf("Ok, no %s for now; tell me the right one when you have it.", q.Field)), true
	case answer == classify.AnswerYes && len(q.Candidates) == 1:
		next, out := acceptLink(st, q.Field, q.Candidates[0])
		return next, out, true
	case answer == classify.AnswerYes && len(strings.Fields(text)) == 1:
		return st, Outcome{Kind: OutcomeTaskPrompt, Text: "For the " + q.Field + ", " + askLink(q), Missing: st.Task().RequiredMissing()}, true
	}

	if r, ok := resolver.Resolve(text, q.Candidates).(resolver.Found[dialogue.LinkChoice]); ok {
		next, out := acceptLink(st, q.Field, r.Entity)
		return next, out, true
	}
	if o.resolver == nil {
		return st, Outcome{}, false
	}
	lo := o.resolveField(ctx, q.Field, text)
	switch {
	case lo.choice != nil:
		next, out := acceptLink(st, q.Field, *lo.choice)
		return next, out, true
	case lo.question != nil:
		st = st.WithLinkQuestion(*lo.question)
		return st, nextPrompt(st, ""), true
	}
	return st, Outcome{}, false
}

// acceptLink stores the chosen record on the task and closes the question.
func acceptLink(st dialogue.State, field string, c dialogue.LinkChoice) (dialogue.State, Outcome) {
	task := dialogue.Merge(st.Task(), map[string]string{field: c.Name, field + "_id": c.ID}, true)
	st = st.WithTask(task).WithoutLinkQuestion(field)
	return st, nextPrompt(st, fmt.Sprintf("Ok, %s.", c.Name))
}

// nextPrompt asks the oldest open link question, or what the task still
// needs when there is none.
func nextPrompt(st dialogue.State, text string) Outcome {
	task := st.Task()
	if q, ok := st.OpenLinkQuestion(); ok {
		return Outcome{Kind: OutcomeTaskPrompt, Text: joinText(text, "For the "+q.Field+", "+askLink(q)), Missing: task.RequiredMissing()}
	}
	return taskPrompt(text, task)
}

// taskPrompt tells the user what the task still needs.
func taskPrompt(text string, task dialogue.Task) Outcome {
	missing := task.RequiredMissing()
	var ask string
	if len(missing) == 0 {
		ask = fmt.Sprintf("I have everything for the %s. Say \"save\" to confirm or keep adding details.", task.Kind())
	} else {
		ask = "Still needed: " + strings.Join(missing, ", ") + "."
	}
	return Outcome{Kind: OutcomeTaskPrompt, Text: joinText(text, ask), Missing: missing}
}

// finalize turns a complete task into its terminal action and clears it.
// It refuses while a link question is open or while a linked field names
// more than one catalog record.
func (o *Orchestrator) finalize(ctx context.Context, st dialogue.State, task dialogue.Task) (dialogue.State, Outcome) {
	if q, ok := st.OpenLinkQuestion(); ok {
		return st, beforeSaving(q, task.RequiredMissing())
	}

	if o.resolver != nil {
		fields := task.Fields()
		for _, field := range linkedFields[task.Kind()] {
			if field == "product" || fields[field] == "" || fields[field+"_id"] != "" {
				continue
			}
			lo := o.resolveField(ctx, field, fields[field])
			switch {
			case lo.choice != nil:
				task = dialogue.Merge(task, map[string]string{field: lo.choice.Name, field + "_id": lo.choice.ID}, true)
			case lo.question != nil:
				st = st.WithTask(task).WithLinkQuestion(*lo.question)
				return st, beforeSaving(*lo.question, []string{field})
			}
		}
	}

	params := task.Fields()
	params["entity"] = string(task.Kind())
	create := action.Action{Type: action.Create, Params: params}

	m, ok := task.(dialogue.MaintenanceRegistration)
	if !ok || m.ProductID != "" || o.resolver == nil {
		return st.WithTask(nil), execute(fmt.Sprintf("Saving the %s.", task.Kind()), create)
	}

	res, err := o.resolver.ProductStrict(ctx, m.Product)
	if err != nil {
		o.log.Error().Ctx(ctx).Err(err).Str("product", m.Product).Msg("product lookup failed, falling back to search")
		search := action.Action{Type: action.Search, Params: map[string]string{"query": m.Product}}
		return st, execute(fmt.Sprintf("I couldn't check the catalog, so here is a search for %s. The maintenance draft is kept.", m.Product), search)
	}

	lo := outcomeOf("product", res, func(p catalog.Product) string { return p.ID })
	switch {
	case lo.choice != nil:
		create.Params["product"] = lo.choice.Name
		create.Params["product_id"] = lo.choice.ID
		return st.WithTask(nil), execute("Saving the maintenance.", create)
	case lo.question != nil:
		st = st.WithLinkQuestion(*lo.question)
		return st, beforeSaving(*lo.question, []string{"product"})
	}
	search := action.Action{Type: action.Search, Params: map[string]string{"query": m.Product}}
	return st, execute(fmt.Sprintf("I can't find %s in the inventory. Here is a search; tell me which product it is.", m.Product), search)
}

func beforeSaving(q dialogue.LinkQuestion, missing []string) Outcome {
	return Outcome{Kind: OutcomeTaskPrompt, Text: "Before saving, for the " + q.Field + ", " + askLink(q), Missing: missing}
}

// ApplyBarcode feeds a scanned code into the conversation. With a product
// draft open the code is stored on it, otherwise the caller gets a search
// by barcode. No oracle call is made.
func (o *Orchestrator) ApplyBarcode(ctx context.Context, st dialogue.State, raw string) (dialogue.State, Outcome, error) {
	var code string
	switch r := guard.SanitizeBarcode(raw).(type) {
	case guard.Clean:
		code = r.Text
	case guard.Suspicious:
		o.metrics.FlaggedInput("suspicious", r.Reason)
		o.log.Warn().Ctx(ctx).Str("reason", r.Reason).Str("barcode", r.Text).Msg("suspicious barcode")
		code = r.Text
	case guard.Rejected:
		o.metrics.FlaggedInput("rejected", r.Reason)
		return st, Outcome{}, &InputError{Reason: r.Reason}
	}

	if task, ok := st.Task().(dialogue.ProductCreation); ok {
		merged := dialogue.Merge(task, map[string]string{"barcode": code}, true)
		next := st.WithTask(merged)
		out := taskPrompt("Barcode "+code+" added.", merged)
		return o.finish(next, out), out, nil
	}

	out := execute("Looking up barcode "+code+".", action.Action{Type: action.Search, Params: map[string]string{"barcode": code}})
	return o.finish(st, out), out, nil
}
