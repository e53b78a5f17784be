// Package prompt holds the prompt templates for every generation stage. All
// modes share one base rule set; a mode only varies the framing sentence and
// the legal verdict vocabulary.
package prompt

import (
	"fmt"
	"strings"

	"github.com/scicheckagent/scicheck/internal/model"
)

// NoClaimsSentinel is the exact output the extraction prompt demands when the
// text holds no explicit claims. Receiving it is a valid empty result, not an
// error.
const NoClaimsSentinel = "No explicit claims found."

// NoEvidenceSentinel is stored as the external verdict when every provider
// came back empty.
const NoEvidenceSentinel = "No relevant papers found for this claim."

const baseExtractionRules = `**Strict rules:**
- ONLY include claims that appear EXPLICITLY in the text.
- Each claim must be explicitly stated.
- If no explicit, complete, testable claims exist, output exactly: "` + NoClaimsSentinel + `"
- Absolutely DO NOT infer, paraphrase, generalize, or introduce external knowledge.
- NEVER include incomplete sentences, headings, summaries, conclusions, speculations, questions, or introductory remarks.
- Output ONLY the claims formatted as a numbered list, or "` + NoClaimsSentinel + `"`

var extractionFraming = map[model.Mode]string{
	model.ModeGeneral:    "Extract a **numbered list** of explicit, testable claims.",
	model.ModeScientific: "Extract a **numbered list** of explicit, scientifically testable claims.",
	model.ModeTechnology: "Extract a **numbered list** of explicit, testable claims related to technology.",
}

// Extraction builds the claim-extraction prompt for a mode.
func Extraction(mode model.Mode, text string) string {
	framing, ok := extractionFraming[mode]
	if !ok {
		framing = extractionFraming[model.ModeGeneral]
	}
	return fmt.Sprintf("You will be given a text. %s\n\n%s\n\nTEXT:\n\n%s\n\nOUTPUT:\n", framing, baseExtractionRules, text)
}

var verdictFraming = map[model.Mode]string{
	model.ModeGeneral:    "Analyze this claim and return a structured text response.",
	model.ModeScientific: "Analyze this scientific claim and return a structured text response.",
	model.ModeTechnology: "Evaluate this technology claim and return a structured text response.",
}

// Verdict builds the verdict prompt for a mode. The output contract is a
// small labelled-field text block rather than JSON: free-form models omit
// required punctuation too unreliably for strict structured decoding.
func Verdict(mode model.Mode, claim string) string {
	framing, ok := verdictFraming[mode]
	if !ok {
		framing = verdictFraming[model.ModeGeneral]
	}

	vocab := make([]string, 0, len(mode.Vocabulary()))
	for _, v := range mode.Vocabulary() {
		vocab = append(vocab, string(v))
	}

	return fmt.Sprintf(`%s
Output a structured text response with the following format. Do NOT use code fences, JSON, or extra text outside this structure. Use exact labels and colons.

Verdict: %s
Justification: Concise explanation under 1000 characters.
Sources: None
Keywords: term1, term2, term3, term4, term5

STRICT RULES:
- Verdict: Exactly one of %s
- Justification: String, max 1000 characters
- Sources: 0-2 valid URLs, comma-separated, or "None" if none
- Keywords: 3-5 scientific/technical terms, comma-separated, each 3-20 characters
- Output ONLY the structured text, nothing else

Claim: "%s"
`, framing, vocab[0], strings.Join(vocab, ", "), claim)
}

// Questions builds the follow-up research question prompt.
func Questions(claim string) string {
	return fmt.Sprintf("For the following claim, propose up to 3 concise research questions. Only list the questions.\n\nClaim: %s", claim)
}

// EvidenceSynthesis builds the prompt that grounds a second verdict in
// retrieved literature.
func EvidenceSynthesis(claim string, sources []model.Source) string {
	var papers strings.Builder
	for _, src := range sources {
		if src.Title == "" {
			continue
		}
		fmt.Fprintf(&papers, "Title: %s\nAbstract: %s\nAuthors: %s\nYear: %d\nCitations: %d\nSource: %s\n\n",
			src.Title, src.Abstract, src.Authors, src.Year, src.CitationCount, src.Provider)
	}

	return fmt.Sprintf(`You are an AI assistant evaluating a claim based on provided scientific paper information.

Claim: "%s"

Papers:
%s
Return a short verdict and concise justification referencing the paper titles.`, claim, papers.String())
}

// Report builds the long-form research report prompt for a claim+question
// pair, grounded in whatever earlier verdicts exist.
func Report(claim, question, modelVerdict, externalVerdict string) string {
	return fmt.Sprintf(`You are an AI researcher writing a short, evidence-based report (maximum 1000 words). Your task is to investigate the research question in relation to the claim using verifiable scientific knowledge. Clearly explain how the answer to the research question supports, contradicts, or contextualizes the claim. Provide concise reasoning and avoid speculation.

**CRITICAL FORMATTING REQUIREMENTS:**
- Use ONLY plain text with basic Markdown for formatting
- NO HTML tags of any kind
- Use **bold** for emphasis, simple bullet points with * or -
- Separate sections with clear headings using ##

**Structure:**

## 1. Introduction
Briefly state the question's relevance to the claim.

## 2. Analysis
Answer the research question directly, citing evidence or established principles.

## 3. Conclusion
Summarize how the analysis impacts the validity of the original claim.

## 4. Sources
List up to 3 relevant sources with full URLs.

---

**Claim:**
%s

**AI's Initial Verdict on Claim:**
%s

**External Verification Verdict (if available):**
%s

**Research Question:**
%s

---

**AI Research Report**
`, claim, modelVerdict, externalVerdict, question)
}
