package generation

import (
	"fmt"
	"strings"

	"github.com/ManuelReschke/ExamFox/app/models"
	"github.com/ManuelReschke/ExamFox/internal/pkg/completion"
)

const systemPrompt = "Você é um assistente especializado em criar provas educacionais. Sempre responda em JSON válido."

const responseSchema = `FORMATO DE RESPOSTA (JSON):
{
  "title": "Prova de [TEMA]",
  "questions": [
    {
      "number": 1,
      "prompt": "pergunta aqui",
      "type": "multiple_choice",
      "choices": ["A) ...", "B) ...", "C) ...", "D) ..."],
      "correctAnswer": "A"
    }
  ],
  "answerKey": {
    "1": "A",
    "2": "V",
    "3": "Resposta dissertativa esperada..."
  }
}

REGRAS:
- "type" é "multiple_choice", "true_false" ou "essay".
- multiple_choice: exatamente 4 alternativas (A, B, C, D) e "correctAnswer" com a letra correta.
- true_false: sem "choices", "correctAnswer" é "V" (Verdadeiro) ou "F" (Falso).
- essay: sem "choices" e sem "correctAnswer"; a resposta esperada vai no "answerKey".
- "answerKey" tem exatamente uma entrada por questão, com o número da questão como chave.
- Não inclua campos além dos mostrados.

Retorne APENAS o JSON válido, sem texto adicional.`

var typeDescriptions = map[string]string{
	models.QuestionMultipleChoice: "múltipla escolha com 4 alternativas (A, B, C, D)",
	models.QuestionTrueFalse:      "verdadeiro ou falso",
	models.QuestionEssay:          "dissertativas com resposta discursiva",
	models.ExamTypeMixed:          "mistas (múltipla escolha, verdadeiro/falso e dissertativas)",
}

// BuildPrompt renders the completion prompt for a normalized request. Both
// request shapes end with the JSON schema the parser enforces.
func BuildPrompt(req Request) completion.Prompt {
	var b strings.Builder
	if req.IsFreeform() {
		b.WriteString(req.Prompt)
		b.WriteString("\n\nPor favor, gere a prova no formato abaixo.\n\n")
	} else {
		fmt.Fprintf(&b, "Gere uma prova sobre %q para %q com %d questões do tipo %s.\n\n",
			req.Theme, req.Grade, req.QuestionCount, typeDescriptions[req.Type])
		if req.Type == models.ExamTypeMixed {
			b.WriteString("Combine os tipos de questão de forma equilibrada.\n")
		}
		b.WriteString("Crie questões de qualidade acadêmica apropriadas para o nível educacional solicitado.\n\n")
	}
	b.WriteString(responseSchema)

	return completion.Prompt{
		System: systemPrompt,
		User:   b.String(),
	}
}
