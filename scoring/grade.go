package scoring

import "github.com/use-agent/sitegrade/models"

// gradeBands are checked top-down; the first floor the score clears wins.
var gradeBands = []struct {
	floor       int
	letter      string
	explanation string
}{
	{90, "A+", "Exceptional. This site is highly accessible, fast, secure, and easy for AI agents to work with."},
	{85, "A", "Excellent. Minor improvements would make this site best in class."},
	{80, "A-", "Very good. A handful of issues hold it back from an excellent rating."},
	{75, "B+", "Good. Solid fundamentals with several clear areas to tighten up."},
	{70, "B", "Above average. Addressing the recurring issues would lift the experience noticeably."},
	{65, "B-", "Decent. Visitors and agents will hit friction in a few places."},
	{60, "C+", "Fair. Important gaps affect accessibility, trust, or usability."},
	{55, "C", "Average. Meaningful problems across multiple areas need attention."},
	{50, "C-", "Below average. Core issues are likely costing visitors and conversions."},
	{45, "D+", "Poor. Significant problems make the site hard to use for many visitors."},
	{40, "D", "Very poor. Fundamental issues across most audited areas."},
}

const failExplanation = "Failing. The site has severe problems that demand immediate attention."

// GradeFor maps an overall score to its letter grade band.
func GradeFor(score int) models.Grade {
	for _, band := range gradeBands {
		if score >= band.floor {
			return models.Grade{Letter: band.letter, Explanation: band.explanation}
		}
	}
	return models.Grade{Letter: "F", Explanation: failExplanation}
}
