package flow

import "github.com/chibbonta/Wchat/internal/models"

// Top-level menu option identifiers. Button selections carrying these ids
// always start the corresponding flow.
const (
	MenuOptionRegistration = "opt_registration"
	MenuOptionSupport      = "opt_support"
	MenuOptionAssistant    = "opt_assistant"
)

// MenuPrompt is the text accompanying the main menu.
const MenuPrompt = "Hi! 👋 Welcome to Wchat. How can we help you today?\nPick an option or reply with its number."

// MenuHint closes every terminal with the way back to the menu.
const MenuHint = "Type \"menu\" anytime to see the options again."

// MainMenu returns the ordered top-level menu. The order also defines the
// numeric shortcuts: "1" maps to the first option, and so on.
func MainMenu() []models.MenuOption {
	return []models.MenuOption{
		{ID: MenuOptionRegistration, Label: "Open an account"},
		{ID: MenuOptionSupport, Label: "Customer support"},
		{ID: MenuOptionAssistant, Label: "Chat with assistant"},
	}
}

// Step tags for the registration flow.
const (
	StepRegistrationName     models.Step = "ask_name"
	StepRegistrationEmail    models.Step = "ask_email"
	StepRegistrationCity     models.Step = "ask_city"
	StepRegistrationCallback models.Step = "ask_callback"
)

// NewRegistrationFlow builds the scripted account registration flow:
// name, email, city, then an advisor-callback branch.
func NewRegistrationFlow() *ScriptedFlow {
	return NewScriptedFlow(ScriptSpec{
		FlowMode: models.ModeRegistration,
		Steps: []FieldStep{
			{
				Step:     StepRegistrationName,
				Field:    "name",
				Prompt:   "Great, let's open your account! 📝\nWhat is your full name?",
				Invalid:  "I didn't catch a name there.",
				Validate: NonEmpty,
			},
			{
				Step:     StepRegistrationEmail,
				Field:    "email",
				Prompt:   "Thanks! What email address should we use?",
				Invalid:  "That doesn't look like an email address.",
				Validate: EmailShaped,
			},
			{
				Step:     StepRegistrationCity,
				Field:    "city",
				Prompt:   "Almost done. Which city are you in?",
				Invalid:  "Please tell me your city.",
				Validate: NonEmpty,
			},
		},
		Branch: Branch{
			Step:   StepRegistrationCallback,
			Field:  "callback",
			Prompt: "Would you like an advisor to call you back?",
			YesID:  "registration_callback_yes",
			NoID:   "registration_callback_no",
			YesMessages: []string{
				"All set! ✅ An advisor will call you back shortly.",
				MenuHint,
			},
			NoMessages: []string{
				"All set! ✅ Your registration is complete.",
				MenuHint,
			},
		},
	})
}

// Step tags for the support ticket flow.
const (
	StepSupportSubject models.Step = "ask_subject"
	StepSupportDetails models.Step = "ask_details"
	StepSupportUrgent  models.Step = "ask_urgent"
)

// NewSupportTicketFlow builds the scripted support ticket flow: subject,
// details, then an urgency branch.
func NewSupportTicketFlow() *ScriptedFlow {
	return NewScriptedFlow(ScriptSpec{
		FlowMode: models.ModeSupport,
		Steps: []FieldStep{
			{
				Step:     StepSupportSubject,
				Field:    "subject",
				Prompt:   "Sorry to hear you're having trouble. 🛠️\nIn a few words, what is the issue about?",
				Invalid:  "Please give me a short subject for the ticket.",
				Validate: NonEmpty,
			},
			{
				Step:     StepSupportDetails,
				Field:    "details",
				Prompt:   "Got it. Please describe what happened.",
				Invalid:  "I need a short description to open the ticket.",
				Validate: NonEmpty,
			},
		},
		Branch: Branch{
			Step:   StepSupportUrgent,
			Field:  "urgent",
			Prompt: "Is this blocking you right now?",
			YesID:  "support_urgent_yes",
			NoID:   "support_urgent_no",
			YesMessages: []string{
				"Your ticket is open and flagged as urgent. 🚨 Our team will reach out as soon as possible.",
				MenuHint,
			},
			NoMessages: []string{
				"Your ticket is open. 🎫 Our team will get back to you within one business day.",
				MenuHint,
			},
		},
	})
}
