package bot

const describeImagePrompt = "Describe this image in detail"

const sentimentPrompt = `Classify sentiment as Positive, Neutral, or Negative:
Message: %s`

const documentPrompt = `Analyze this document and provide:
1. Document type (report, article, etc.)
2. Main topic
3. Key points (3-5 bullet points)
4. Overall sentiment

Document content: %s`
