// internal/features/vocabulary.go
package features

// DefaultSkillVocabulary is the ordered list of skills recognized in resume
// text. Order matters: matched and missing skill lists preserve it so
// recruiter-facing output is stable between runs.
var DefaultSkillVocabulary = []string{
	"python", "java", "javascript", "typescript", "go", "golang", "c++", "c#",
	"ruby", "php", "swift", "kotlin", "rust", "scala", "r", "sql",
	"html", "css", "react", "angular", "vue", "node.js", "django", "flask",
	"spring", "express", "fastapi", "rails",
	"aws", "azure", "gcp", "docker", "kubernetes", "terraform", "jenkins",
	"git", "ci/cd", "linux",
	"postgresql", "mysql", "mongodb", "redis", "elasticsearch", "kafka",
	"rabbitmq", "cassandra",
	"machine learning", "deep learning", "data analysis", "data science",
	"nlp", "computer vision", "tensorflow", "pytorch", "pandas", "numpy",
	"agile", "scrum", "project management", "leadership", "communication",
	"problem solving", "teamwork",
	"rest", "graphql", "grpc", "microservices", "testing", "tdd",
	"devops", "security",
}
