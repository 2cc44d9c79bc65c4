package flow

import (
	"context"
	"log/slog"

	"github.com/chibbonta/Wchat/internal/models"
)

// FieldStep is one question of a scripted flow: a prompt, the field name
// the answer is stored under, and the validator for the answer's shape.
type FieldStep struct {
	Step     models.Step
	Field    string
	Prompt   string
	Invalid  string // corrective prefix re-sent with the prompt on validation failure
	Validate Validator
}

// Branch is the final yes/no question of a scripted flow. The answer picks
// one of two terminal message sets; either terminal ends the flow.
type Branch struct {
	Step        models.Step
	Field       string
	Prompt      string
	YesID       string
	NoID        string
	YesMessages []string
	NoMessages  []string
}

// ScriptSpec is the static definition of one scripted collection flow:
// an ordered list of validated questions followed by a branching terminal
// question. Concrete flows differ only in their spec.
type ScriptSpec struct {
	FlowMode models.Mode
	Steps    []FieldStep
	Branch   Branch
}

// ScriptedFlow is a data-driven state machine executing a ScriptSpec.
type ScriptedFlow struct {
	spec ScriptSpec
}

// NewScriptedFlow creates a flow engine for the given spec.
func NewScriptedFlow(spec ScriptSpec) *ScriptedFlow {
	return &ScriptedFlow{spec: spec}
}

// Mode returns the session mode this flow owns.
func (f *ScriptedFlow) Mode() models.Mode {
	return f.spec.FlowMode
}

// Start enters the flow at its first question.
func (f *ScriptedFlow) Start(ctx context.Context, userID string) (models.Session, []models.Outbound) {
	first := f.spec.Steps[0]
	sess := models.NewSession(userID, f.spec.FlowMode, first.Step)
	slog.Debug("ScriptedFlow Start", "mode", f.spec.FlowMode, "userID", userID, "step", first.Step)
	return sess, []models.Outbound{models.Text(userID, first.Prompt)}
}

// Advance applies one answer to the current step. Invalid answers re-emit
// the step's prompt and leave the session untouched; valid answers record
// the field and move to the next step. Reaching a terminal branch clears
// the session mode.
func (f *ScriptedFlow) Advance(ctx context.Context, sess *models.Session, sig models.Signal) ([]models.Outbound, error) {
	if sess.Step == f.spec.Branch.Step {
		return f.advanceBranch(sess, sig), nil
	}

	idx := f.stepIndex(sess.Step)
	if idx < 0 {
		// Step tag does not belong to this flow's machine; restart rather than guess.
		slog.Warn("ScriptedFlow unknown step, restarting flow", "mode", f.spec.FlowMode, "userID", sess.UserID, "step", sess.Step)
		fresh, outs := f.Start(ctx, sess.UserID)
		*sess = fresh
		return outs, nil
	}

	step := f.spec.Steps[idx]
	answer, ok := answerText(sig)
	if !ok || !step.Validate(answer) {
		slog.Debug("ScriptedFlow answer rejected", "mode", f.spec.FlowMode, "userID", sess.UserID, "step", step.Step)
		return []models.Outbound{models.Text(sess.UserID, step.Invalid + "\n\n" + step.Prompt)}, nil
	}

	if sess.Fields == nil {
		sess.Fields = make(map[string]string)
	}
	sess.Fields[step.Field] = answer
	slog.Debug("ScriptedFlow field collected", "mode", f.spec.FlowMode, "userID", sess.UserID, "field", step.Field)

	if idx+1 < len(f.spec.Steps) {
		next := f.spec.Steps[idx+1]
		sess.Step = next.Step
		return []models.Outbound{models.Text(sess.UserID, next.Prompt)}, nil
	}

	sess.Step = f.spec.Branch.Step
	return []models.Outbound{f.branchPrompt(sess.UserID)}, nil
}

// advanceBranch resolves the yes/no terminal question. Button selections
// carrying the branch's ids and recognizable free-text answers are both
// normalized to a boolean; anything else re-emits the prompt.
func (f *ScriptedFlow) advanceBranch(sess *models.Session, sig models.Signal) []models.Outbound {
	b := f.spec.Branch

	var yes, recognized bool
	switch sig.Kind {
	case models.SignalButton:
		switch sig.ButtonID {
		case b.YesID:
			yes, recognized = true, true
		case b.NoID:
			yes, recognized = false, true
		}
	case models.SignalFreeText:
		yes, recognized = ParseYesNo(sig.Text)
	}

	if !recognized {
		slog.Debug("ScriptedFlow branch answer not recognized", "mode", f.spec.FlowMode, "userID", sess.UserID)
		return []models.Outbound{f.branchPrompt(sess.UserID)}
	}

	if sess.Fields == nil {
		sess.Fields = make(map[string]string)
	}
	terminal := b.NoMessages
	if yes {
		sess.Fields[b.Field] = "yes"
		terminal = b.YesMessages
	} else {
		sess.Fields[b.Field] = "no"
	}

	outs := make([]models.Outbound, 0, len(terminal))
	for _, msg := range terminal {
		outs = append(outs, models.Text(sess.UserID, msg))
	}

	slog.Info("ScriptedFlow reached terminal", "mode", f.spec.FlowMode, "userID", sess.UserID, "branch_yes", yes)
	sess.Mode = models.ModeUnset
	sess.Step = ""
	return outs
}

func (f *ScriptedFlow) branchPrompt(userID string) models.Outbound {
	b := f.spec.Branch
	return models.YesNo(userID, b.Prompt, b.YesID, b.NoID)
}

func (f *ScriptedFlow) stepIndex(step models.Step) int {
	for i, s := range f.spec.Steps {
		if s.Step == step {
			return i
		}
	}
	return -1
}

// answerText extracts the free-text answer from a signal. Buttons and
// unrecognized signals are not valid answers at a field step.
func answerText(sig models.Signal) (string, bool) {
	if sig.Kind != models.SignalFreeText {
		return "", false
	}
	return sig.Text, true
}
