package caption

import (
	"fmt"
	"strings"
)

// The task templates tell the captioning model what to describe and how to
// shape its reply. Both insist that details named in the user prompt
// (category, style, quantity, background) override whatever the model infers
// from pixels; that precedence is part of the service contract.

const basicTaskTemplate = `You are an image captioning assistant helping to generate training captions for a dataset of food images.
You will receive a food image and a user prompt describing how it should be redesigned.

Task:
Generate a detailed caption describing the image. The caption should:
- Include visual details like color, pattern, drawing style, background if visible.
- Analyze the "category" (the general type of food depicted) and describe its key features.
- Be a single sentence, fluent, and descriptive.
- Be suitable as a prompt for a text-to-image model.

If the user prompt mentions a category, style, quantity, or any specific detail, you must strictly follow the user's input. User instructions take precedence over visual content.

Use this format:
{
  "category": "<your generated food category here>",
  "caption": "<your generated caption here>"
}`

const enhancedTaskTemplate = `You are an image captioning assistant helping to generate training captions for a dataset of food images.
You will receive a food image and a user prompt describing how it should be redesigned.

Important:
Always prioritize the user's input when generating the caption. If the user mentions a category, style, quantity, or any specific detail, you must strictly follow the user's input. User instructions take precedence over visual content.

Your task:
Generate a JSON object that contains:
- "caption": a fluent, descriptive sentence describing the image, including color, drawing style, lighting, quantity, and background, suitable as a prompt for a text-to-image model.
- "drawing_style": a short phrase describing the illustration style (e.g., flat cartoon vector, watercolor, realistic, 3D render, line art).
- "quantity": an integer count of the depicted objects, honoring the user prompt.
- "background": describe the background if visible, or say "no background".
After generating the caption, check whether the category inferred from the image differs from the category in the user prompt. If there is a conflict, revise the caption to match the category provided by the user.

Use this format:
{
  "caption": "<a descriptive sentence>",
  "drawing_style": "<short phrase>",
  "quantity": <integer>,
  "background": "<description or 'no background'>"
}`

// BuildTaskPrompt combines the schema's task template with the user's
// instruction into the text part of one captioning request.
func BuildTaskPrompt(req Request) string {
	template := basicTaskTemplate
	if req.Schema == SchemaEnhanced {
		template = enhancedTaskTemplate
	}
	sb := &strings.Builder{}
	sb.WriteString(template)
	if instr := strings.TrimSpace(req.Instruction); instr != "" {
		fmt.Fprintf(sb, "\n\nUser prompt: %s", instr)
	}
	return sb.String()
}
