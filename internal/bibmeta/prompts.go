package bibmeta

// Prompt templates. Each takes the region text as its single formatting
// argument and demands a bare JSON response.

const headPromptEN = `The following text is the front matter of an academic document
(title page, abstract, keywords).

Extract the bibliographic metadata and answer with a single JSON object, no
commentary, with these keys: "title" (string), "authors" (list of strings),
"affiliations" (list of strings), "keywords" (list of strings),
"venue" (string), "year" (string). Use "" or [] when a field is absent.

Front matter:
%s`

const headPromptZH = `以下文本是一篇学术文献的前置部分（题名页、摘要、关键词）。

请提取文献元数据，仅回答一个 JSON 对象，不要附加说明，包含以下键：
"title"（字符串）、"authors"（字符串列表）、"affiliations"（字符串列表）、
"keywords"（字符串列表）、"venue"（字符串）、"year"（字符串）。
字段缺失时用 "" 或 []。

前置部分：
%s`

const referencesPromptEN = `The following text is the reference section of an academic
document. Extract the individual bibliography entries.

Answer with a single JSON array, no commentary. Each entry is an object with
"index" (integer position in the list) and "text" (the full citation string).

Reference section:
%s`

const referencesPromptZH = `以下文本是一篇学术文献的参考文献部分。请提取其中的每一条文献条目。

仅回答一个 JSON 数组，不要附加说明。每个条目为一个对象，包含
"index"（条目序号，整数）和 "text"（完整的引文字符串）。

参考文献部分：
%s`

func headPrompt(lang string) string {
	if lang == "zh" {
		return headPromptZH
	}
	return headPromptEN
}

func referencesPrompt(lang string) string {
	if lang == "zh" {
		return referencesPromptZH
	}
	return referencesPromptEN
}
