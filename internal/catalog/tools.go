package catalog

// Tool ids the coaching app links to. Every deployed catalog must carry a
// policy for each of them; see Referenced.
const (
	GesprekStarter   ToolID = "gesprek-starter"
	IJsbreker        ToolID = "ijsbreker"
	PlatformMatch    ToolID = "platform-match"
	ChatCoach        ToolID = "chat-coach"
	Veiligheidscheck ToolID = "veiligheidscheck"
	ProfielAnalyse   ToolID = "profiel-analyse"
	BioSchrijver     ToolID = "bio-schrijver"
	FotoFeedback     ToolID = "foto-feedback"
	DatePlanner      ToolID = "date-planner"
	VIPCoaching      ToolID = "vip-coaching"
)

// Referenced returns the tool ids the app references, in menu order.
func Referenced() []ToolID {
	return []ToolID{
		GesprekStarter,
		IJsbreker,
		PlatformMatch,
		ChatCoach,
		Veiligheidscheck,
		ProfielAnalyse,
		BioSchrijver,
		FotoFeedback,
		DatePlanner,
		VIPCoaching,
	}
}
