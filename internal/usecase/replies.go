package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// Canned conversation text. The wording matters less than the contract: the
// same prompt repeats verbatim until the targeted field is collected.

const (
	greetingMessage = "Hello! Welcome to the interview. I'm your AI interviewer and I'll be conducting " +
		"an adaptive conversation tailored to your background.\n\nTo get started, what should I call you?"

	askNameReply = "I'd love to get to know you better! What should I call you?"

	askEmailReply = "Please provide a valid email address (e.g., john@example.com)."

	askExperienceReply = "How many **years of professional experience** do you have?"

	askPositionReply = "What type of **position** are you interested in? (e.g., Software Engineer, Data Scientist, Product Manager)"

	askTechStackReply = "What **programming languages, frameworks, and technologies** are you proficient with?\n\n" +
		"Please list your main technical skills separated by commas (e.g., Python, React, AWS, PostgreSQL)."

	clarifyReply = "I didn't catch that. Could you please respond?"

	apologyReply = "I apologize, but I encountered an issue. Could you please try again?"

	completedReply = "Our interview is complete. Thank you again for your time - we'll be in touch soon!"

	rateLimitedReply = "You're sending messages a little too quickly. Please wait a moment and try again."

	techCompleteMessage = "**Technical Assessment Complete!**\n\n" +
		"You've demonstrated solid technical knowledge and problem-solving skills. " +
		"Now let's explore your soft skills and behavioral competencies."

	wrapUpClosingMessage = "Thank you for your thoughtful questions!\n\n" +
		"Our interview process is now complete. You've successfully demonstrated both technical " +
		"competency and strong communication skills.\n\n" +
		"**Next Steps:**\n" +
		"1. Our team will review your responses\n" +
		"2. We'll be in touch within 2-3 business days\n" +
		"3. If selected, you'll be invited for the next round\n\n" +
		"Have a wonderful day, and thank you for your interest in our company!"
)

func niceToMeetReply(name string) string {
	return fmt.Sprintf("Nice to meet you, **%s**!\n\n"+
		"I'll be asking a mix of technical and behavioral questions adapted to your profile.\n\n"+
		"Could you please share your **email address** so we can keep in touch?", name)
}

// missingFieldPrompt returns the deterministic prompt for the first still-
// missing profile field. The lookup is idempotent: the same missing field
// always yields the same prompt.
func missingFieldPrompt(p domain.Profile) string {
	switch {
	case p.Name == "":
		return askNameReply
	case p.Email == "":
		return askEmailReply
	case p.Experience == "":
		return askExperienceReply
	case p.Position == "":
		return askPositionReply
	default:
		return askTechStackReply
	}
}

func profileSummary(p domain.Profile) string {
	return fmt.Sprintf("Perfect! I now have your complete profile:\n\n"+
		"**Candidate Profile:**\n"+
		"- **Name:** %s\n"+
		"- **Position:** %s\n"+
		"- **Experience:** %s\n"+
		"- **Tech Stack:** %s\n\n"+
		"Let's begin the technical assessment!",
		p.Name, p.Position, p.Experience, strings.Join(p.TechStack, ", "))
}

// encouragement tiers acknowledgment by answer length, mirroring how a human
// interviewer reacts to depth rather than content.
func encouragement(answer string) string {
	switch words := len(strings.Fields(answer)); {
	case words > 80:
		return "**Excellent!** I appreciate the comprehensive explanation and the depth of detail you provided."
	case words > 40:
		return "**Great response!** You've clearly thought through this problem systematically."
	case words > 20:
		return "**Good insight!** Your experience in this area is evident."
	default:
		return "**Thank you for sharing that.** Your practical experience is valuable."
	}
}

func completionSummary(c *domain.ConversationContext, now time.Time) string {
	duration := int(now.Sub(c.CreatedAt).Minutes())
	return fmt.Sprintf("**Interview Complete!**\n\n"+
		"Thank you for your time today, **%s**!\n\n"+
		"**Interview Summary:**\n"+
		"- Technical questions: %d\n"+
		"- Behavioral questions: %d\n"+
		"- Duration: %d minutes\n\n"+
		"Our team will evaluate your answers and you can expect feedback within 2-3 business days.\n\n"+
		"**Final Question:** Do you have any questions about our company, team, or the role that I can help answer?",
		c.Profile.Name, c.StageCounters[domain.StageTechnical], c.StageCounters[domain.StageBehavioral], duration)
}
