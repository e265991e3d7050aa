package db

import (
	"arborist-study-api/models"
	"arborist-study-api/utils"
)

func mc(topicID int, es, en string, optsES, optsEN []string, correct int, explES, explEN, difficulty string) models.Question {
	return models.Question{
		TopicID:       topicID,
		Type:          models.QuestionTypeMultipleChoice,
		Question:      models.MultilingualText{ES: es, EN: en},
		Options:       &models.MultilingualOptions{ES: optsES, EN: optsEN},
		CorrectAnswer: correct,
		Explanation:   models.MultilingualText{ES: explES, EN: explEN},
		Difficulty:    difficulty,
	}
}

func tf(topicID int, es, en string, correct bool, explES, explEN, difficulty string) models.Question {
	answer := 0
	if correct {
		answer = 1
	}
	return models.Question{
		TopicID:       topicID,
		Type:          models.QuestionTypeTrueFalse,
		Question:      models.MultilingualText{ES: es, EN: en},
		CorrectAnswer: answer,
		Explanation:   models.MultilingualText{ES: explES, EN: explEN},
		Difficulty:    difficulty,
	}
}

var seedQuestions = []models.Question{
	mc(1,
		"¿Qué tejido transporta el agua desde las raíces hasta las hojas?",
		"Which tissue transports water from the roots to the leaves?",
		[]string{"Floema", "Xilema", "Cámbium", "Corteza"},
		[]string{"Phloem", "Xylem", "Cambium", "Bark"},
		1,
		"El xilema conduce agua y minerales hacia arriba; el floema distribuye los azúcares.",
		"Xylem conducts water and minerals upward; phloem distributes sugars.",
		models.DifficultyEasy),
	tf(1,
		"La mayor parte de las raíces absorbentes de un árbol se encuentra en los primeros 30 cm de suelo.",
		"Most of a tree's absorbing roots are found in the top 30 cm of soil.",
		true,
		"Las raíces finas absorbentes se concentran cerca de la superficie, donde hay oxígeno.",
		"Fine absorbing roots concentrate near the surface where oxygen is available.",
		models.DifficultyMedium),
	mc(2,
		"¿Cuál es el factor más importante al seleccionar una especie para un sitio?",
		"What is the most important factor when selecting a species for a site?",
		[]string{"El costo del árbol", "Las condiciones del sitio", "La velocidad de crecimiento", "El color de las flores"},
		[]string{"The cost of the tree", "The site conditions", "Growth rate", "Flower color"},
		1,
		"\"El árbol adecuado en el lugar adecuado\": las condiciones del sitio determinan la especie.",
		"\"Right tree, right place\": site conditions drive species selection.",
		models.DifficultyEasy),
	mc(3,
		"¿Qué indica un pH del suelo de 8.5?",
		"What does a soil pH of 8.5 indicate?",
		[]string{"Suelo ácido", "Suelo neutro", "Suelo alcalino", "Suelo salino"},
		[]string{"Acidic soil", "Neutral soil", "Alkaline soil", "Saline soil"},
		2,
		"Valores por encima de 7 son alcalinos; muchos nutrientes se vuelven menos disponibles.",
		"Values above 7 are alkaline; many nutrients become less available.",
		models.DifficultyMedium),
	tf(4,
		"Al plantar, el cuello de la raíz debe quedar por debajo del nivel del suelo.",
		"When planting, the root collar should sit below grade.",
		false,
		"El cuello de la raíz debe quedar al nivel del suelo o ligeramente por encima; enterrarlo favorece la pudrición.",
		"The root collar must be at or slightly above grade; burying it promotes decay.",
		models.DifficultyEasy),
	mc(5,
		"¿Dónde debe hacerse el corte final al podar una rama?",
		"Where should the final cut be made when pruning a branch?",
		[]string{"Al ras del tronco", "Justo fuera del cuello de la rama", "A 15 cm del tronco", "En cualquier punto"},
		[]string{"Flush with the trunk", "Just outside the branch collar", "15 cm from the trunk", "Anywhere"},
		1,
		"El corte fuera del cuello de la rama preserva la zona de compartimentación del árbol.",
		"Cutting outside the branch collar preserves the tree's compartmentalization zone.",
		models.DifficultyEasy),
	tf(5,
		"El desmoche es una práctica de poda aceptada para reducir el tamaño de un árbol.",
		"Topping is an accepted pruning practice for reducing tree size.",
		false,
		"El desmoche causa brotes débiles y pudrición; la reducción de copa apropiada corta hasta ramas laterales.",
		"Topping causes weak sprouts and decay; proper crown reduction cuts to lateral branches.",
		models.DifficultyEasy),
	mc(6,
		"Las hojas amarillas con nervaduras verdes suelen indicar:",
		"Yellow leaves with green veins usually indicate:",
		[]string{"Exceso de agua", "Clorosis por deficiencia de hierro", "Daño por herbicida", "Plaga de insectos"},
		[]string{"Overwatering", "Iron deficiency chlorosis", "Herbicide damage", "Insect infestation"},
		1,
		"La clorosis intervenal es el síntoma clásico de deficiencia de hierro o manganeso.",
		"Interveinal chlorosis is the classic symptom of iron or manganese deficiency.",
		models.DifficultyMedium),
	mc(7,
		"¿Cuál es la zona de protección radicular crítica durante la construcción?",
		"What is the critical root protection zone during construction?",
		[]string{"El área bajo la copa (línea de goteo)", "1 metro del tronco", "Solo el tronco", "No existe tal zona"},
		[]string{"The area under the crown (dripline)", "1 meter from the trunk", "Only the trunk", "No such zone exists"},
		0,
		"Como mínimo, el área dentro de la línea de goteo debe protegerse de compactación y excavación.",
		"At minimum the area inside the dripline must be protected from compaction and excavation.",
		models.DifficultyMedium),
	tf(8,
		"Un árbol con un defecto estructural es siempre un árbol de alto riesgo.",
		"A tree with a structural defect is always a high-risk tree.",
		false,
		"El riesgo combina probabilidad de falla, probabilidad de impacto y consecuencias; un defecto solo no define el riesgo.",
		"Risk combines likelihood of failure, likelihood of impact and consequences; a defect alone does not define risk.",
		models.DifficultyHard),
	mc(9,
		"¿A qué distancia mínima debe trabajarse de una línea eléctrica sin calificación especial?",
		"What is the minimum approach distance to a power line without special qualification?",
		[]string{"1 metro", "3 metros (10 pies)", "30 centímetros", "No hay distancia mínima"},
		[]string{"1 meter", "3 meters (10 feet)", "30 centimeters", "There is no minimum distance"},
		1,
		"Los trabajadores no calificados deben mantener al menos 3 metros (10 pies) de los conductores.",
		"Unqualified workers must stay at least 3 meters (10 feet) from conductors.",
		models.DifficultyEasy),
	tf(9,
		"El equipo de protección personal es opcional para trabajos de poda en altura.",
		"Personal protective equipment is optional for climbing pruning work.",
		false,
		"Casco, protección ocular y sistema de trepa son obligatorios en todo trabajo en altura.",
		"Helmet, eye protection and a climbing system are mandatory for all work at height.",
		models.DifficultyEasy),
	mc(10,
		"¿Qué beneficio NO es típico del arbolado urbano?",
		"Which benefit is NOT typical of the urban forest?",
		[]string{"Reducción de islas de calor", "Manejo de aguas pluviales", "Aumento del ruido urbano", "Mejora de la calidad del aire"},
		[]string{"Heat island reduction", "Stormwater management", "Increased urban noise", "Improved air quality"},
		2,
		"El arbolado urbano amortigua el ruido; los demás son beneficios reconocidos.",
		"Urban trees buffer noise; the others are recognized benefits.",
		models.DifficultyEasy),
	tf(10,
		"El valor de un árbol urbano puede tasarse formalmente.",
		"The value of an urban tree can be formally appraised.",
		true,
		"Existen métodos de tasación reconocidos, como el método del costo de reposición.",
		"Recognized appraisal methods exist, such as the replacement cost method.",
		models.DifficultyMedium),
}

// SeedQuestions loads the starter question bank when the table is empty
func (db *DB) SeedQuestions() error {
	count, err := db.CountQuestions()
	if err != nil {
		return err
	}
	if count > 0 {
		utils.LogDB("Question bank already has %d questions, skipping seed", count)
		return nil
	}

	for i := range seedQuestions {
		q := seedQuestions[i]
		if err := db.CreateQuestion(&q); err != nil {
			return err
		}
	}

	utils.LogStartup("Seeded %d questions across %d topics", len(seedQuestions), len(models.ExamTopics))
	return nil
}

// SeedDemoUsers creates the demo accounts if they do not exist yet.
// hashPassword is injected so the db package stays free of crypto concerns.
func (db *DB) SeedDemoUsers(hashPassword func(string) (string, error)) error {
	demo := []models.RegisterRequest{
		{Username: "estudiante1", Email: "estudiante1@email.com", Name: "Juan Pérez", Language: "es", Password: "password123"},
		{Username: "student2", Email: "student2@email.com", Name: "Mary Johnson", Language: "en", Password: "password123"},
	}

	for _, req := range demo {
		if _, _, err := db.GetUserByUsername(req.Username); err == nil {
			continue
		}

		hash, err := hashPassword(req.Password)
		if err != nil {
			return err
		}
		if _, err := db.CreateUser(req, hash); err != nil {
			return err
		}
		utils.LogStartup("Created demo user: %s", req.Username)
	}

	return nil
}
