package models

// Topic is one of the certification exam domains questions are grouped under
type Topic struct {
	ID     int              `json:"id"`
	Name   MultilingualText `json:"name"`
	Weight int              `json:"weight"`
}

// ExamTopics mirrors the topic breakdown of the certification exam. Topic IDs
// referenced by questions and topic exams must fall in [1, len(ExamTopics)].
var ExamTopics = []Topic{
	{ID: 1, Name: MultilingualText{ES: "Biología del Árbol", EN: "Tree Biology"}, Weight: 11},
	{ID: 2, Name: MultilingualText{ES: "Identificación y Selección", EN: "Identification and Selection"}, Weight: 9},
	{ID: 3, Name: MultilingualText{ES: "Manejo de Suelo", EN: "Soil Management"}, Weight: 7},
	{ID: 4, Name: MultilingualText{ES: "Instalación y Establecimiento", EN: "Installation and Establishment"}, Weight: 9},
	{ID: 5, Name: MultilingualText{ES: "Poda", EN: "Pruning"}, Weight: 14},
	{ID: 6, Name: MultilingualText{ES: "Diagnóstico y Tratamiento", EN: "Diagnosis and Treatment"}, Weight: 9},
	{ID: 7, Name: MultilingualText{ES: "Árboles y Construcción", EN: "Trees and Construction"}, Weight: 9},
	{ID: 8, Name: MultilingualText{ES: "Riesgo de Árboles", EN: "Tree Risk"}, Weight: 11},
	{ID: 9, Name: MultilingualText{ES: "Prácticas de Trabajo Seguras", EN: "Safe Work Practices"}, Weight: 15},
	{ID: 10, Name: MultilingualText{ES: "Silvicultura Urbana", EN: "Urban Forestry"}, Weight: 6},
}

// ValidTopicID reports whether id maps to a known exam topic
func ValidTopicID(id int) bool {
	return id >= 1 && id <= len(ExamTopics)
}
