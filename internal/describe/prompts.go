package describe

// Prompt templates for the vision calls. Each takes the document summary as
// its single formatting argument.

const figurePromptEN = `You are analyzing a figure from an academic document.

Document summary:
%s

Describe the figure in detail: what it depicts, its structure (axes, nodes,
flows, components), the key quantities or relationships shown, and the main
takeaway a reader should draw from it. Answer in plain prose without headings.`

const figurePromptZH = `你正在分析一篇学术文献中的插图。

文档摘要：
%s

请详细描述该图：图中展示了什么、其结构（坐标轴、节点、流程、组成部分）、
呈现的关键数值或关系，以及读者应从中得到的主要结论。用连贯的中文段落回答，不要使用标题。`

const tablePromptEN = `You are analyzing a table from an academic document.

Document summary:
%s

Describe the table: what each row and column represents, the notable values or
comparisons, and what the table demonstrates in the context of the document.
Answer in plain prose without headings.`

const tablePromptZH = `你正在分析一篇学术文献中的表格。

文档摘要：
%s

请描述该表格：每行每列代表什么、值得注意的数值或对比，以及该表格在文档语境下
说明了什么。用连贯的中文段落回答，不要使用标题。`

const equationPromptEN = `You are analyzing an equation or formula image from an academic document.

Document summary:
%s

Transcribe the mathematical content, name each symbol where the context makes
it clear, and explain what the expression computes or states. Answer in plain
prose without headings.`

const equationPromptZH = `你正在分析一篇学术文献中的公式图片。

文档摘要：
%s

请转写其中的数学内容，在上下文允许的情况下说明各符号的含义，并解释该表达式
计算或陈述了什么。用连贯的中文段落回答，不要使用标题。`

const summaryPromptEN = `Summarize the following document text in 3-5 sentences,
covering its topic, approach and main findings:

%s`

const summaryPromptZH = `请用 3-5 句话概括以下文档内容，涵盖其主题、方法与主要结论：

%s`

func summaryPrompt(lang string) string {
	if lang == "zh" {
		return summaryPromptZH
	}
	return summaryPromptEN
}

func descriptionPrompt(lang, kind string) string {
	zh := lang == "zh"
	switch kind {
	case "table":
		if zh {
			return tablePromptZH
		}
		return tablePromptEN
	case "equation":
		if zh {
			return equationPromptZH
		}
		return equationPromptEN
	}
	if zh {
		return figurePromptZH
	}
	return figurePromptEN
}
