package main

type sampleArticle struct {
	Title   string
	Summary string
}

var sampleArticles = []sampleArticle{
	{
		Title:   "AI-Powered Diagnostic Tool Shows Promise in Early Cancer Detection",
		Summary: "A new AI algorithm developed by researchers at Stanford has shown 94% accuracy in detecting early-stage pancreatic cancer from routine CT scans, potentially improving survival rates through earlier intervention. The tool is designed to assist radiologists by flagging suspicious findings for further review, not to replace human expertise.",
	},
	{
		Title:   "Study Reveals Physician Burnout Reduced by 30% with AI Documentation Assistants",
		Summary: "A recent study published in JAMA found that implementing AI-powered documentation assistants in primary care settings reduced physician burnout by 30% over six months. The technology transcribes patient-doctor conversations and automatically generates clinical notes, allowing physicians to spend more time engaging with patients and less time on paperwork.",
	},
	{
		Title:   "Concerns Raised Over Bias in Healthcare AI Systems",
		Summary: "A comprehensive review of healthcare AI systems published in Nature Medicine found significant biases in many algorithms, with models performing worse for underrepresented populations. Researchers call for more diverse training data and greater transparency in AI development to ensure these technologies don't exacerbate existing healthcare disparities.",
	},
}
