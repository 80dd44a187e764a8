package fuse

// cjkThreshold is the fraction of CJK characters above which a text sample is
// classified as Chinese.
const cjkThreshold = 0.3

// DetectLanguage classifies a text sample as "zh" or "en" by the ratio of CJK
// unified ideographs to total characters. An empty sample reports "en".
func DetectLanguage(sample string) string {
	runes := []rune(sample)
	if len(runes) == 0 {
		return "en"
	}
	cjk := 0
	for _, r := range runes {
		if r >= 0x4E00 && r <= 0x9FFF {
			cjk++
		}
	}
	if float64(cjk)/float64(len(runes)) > cjkThreshold {
		return "zh"
	}
	return "en"
}
