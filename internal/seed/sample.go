package seed

import "github.com/nvandessel/polisim/internal/ideology"

// Sample returns a fixed ten-citizen electorate spanning the ideological
// extremes and the center. Useful for demos and smoke tests.
func Sample() []ideology.Citizen {
	return []ideology.Citizen{
		{
			ID: "c164ed2f-0b44-469b-839e-4c74070220a2", Name: "Elias Thorne", Age: 42,
			Worldview: "Believes in free markets but worries about environmental collapse.",
			Ideology:  ideology.MustNew(0.6, -0.2, 0.8, 0.4, 0.3, 0.7),
		},
		{
			ID: "8bb384c3-631c-4cf2-9e8c-85de11cfbccc", Name: "Sarah Jenkins", Age: 28,
			Worldview: "Advocates for universal healthcare and strict corporate regulation.",
			Ideology:  ideology.MustNew(-0.8, -0.9, 0.9, 0.6, 0.8, 0.2),
		},
		{
			ID: "e8d96b99-a8fc-4c12-9856-2e5f5da8dbfe", Name: "Marcus Vance", Age: 55,
			Worldview: "Strong national defense and traditional family values.",
			Ideology:  ideology.MustNew(0.5, 0.8, 0.2, 0.9, 0.5, 0.4),
		},
		{
			ID: "97b370a2-fde2-4632-b7ce-651dff62efb6", Name: "Luna Reyes", Age: 22,
			Worldview: "Anarcho-communist who wants to dismantle all hierarchies.",
			Ideology:  ideology.MustNew(-1.0, -1.0, 1.0, 0.0, 0.9, 0.9),
		},
		{
			ID: "1ab71eb1-b541-477c-a4f6-82f5b5c92c4f", Name: "David Chen", Age: 35,
			Worldview: "Tech libertarian who thinks AI and crypto will solve everything.",
			Ideology:  ideology.MustNew(0.9, -0.5, 0.3, 0.1, 0.1, 1.0),
		},
		{
			ID: "62b9ad78-df57-41cc-b1c4-16e7887532df", Name: "Valerie O'Connor", Age: 68,
			Worldview: "Centrist who just wants the potholes fixed and taxes lowered slightly.",
			Ideology:  ideology.MustNew(0.2, 0.1, 0.5, 0.5, 0.4, 0.1),
		},
		{
			ID: "a918fc9b-cc7e-40e1-a0a4-37a5f60afb1c", Name: "Jamal Washington", Age: 31,
			Worldview: "Social democrat focused on systemic inequality and union power.",
			Ideology:  ideology.MustNew(-0.7, -0.6, 0.6, 0.5, 0.7, 0.3),
		},
		{
			ID: "2d1a3371-ebd6-4bca-8422-4809f6eeb0bf", Name: "Chloe Dupont", Age: 40,
			Worldview: "Eco-fascist who believes strong central authority is needed to save the planet.",
			Ideology:  ideology.MustNew(0.0, 0.5, 1.0, 0.9, 0.8, 0.6),
		},
		{
			ID: "db8cf822-4a0b-4654-8c83-5ecba059c250", Name: "Arthur Pendelton", Age: 75,
			Worldview: "Old-school conservative, believes in slow reform and strict constitutionalism.",
			Ideology:  ideology.MustNew(0.4, 0.9, 0.1, 0.7, 0.2, 0.0),
		},
		{
			ID: "f5c40467-360e-473d-bc65-d05de6b683cf", Name: "Maya Singh", Age: 25,
			Worldview: "Pragmatic progressive building local mutual aid networks.",
			Ideology:  ideology.MustNew(-0.5, -0.7, 0.7, 0.2, 0.9, 0.5),
		},
	}
}
