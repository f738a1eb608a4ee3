// Package fixtures provides deterministic record sets used when live
// acquisition is disabled or every source fails.
package fixtures

import (
	"github.com/agentstation/agoraflux/pkg/dataset"
)

// Provider returns fixture records for a data type.
type Provider interface {
	Records(t dataset.Type) []dataset.Record
}

// Static is the built-in fixture provider.
type Static struct{}

// Default is the built-in fixture provider instance.
var Default Provider = Static{}

// Records returns a fresh copy of the fixture records for t.
// TypeGeneral has no fixtures.
func (Static) Records(t dataset.Type) []dataset.Record {
	switch t {
	case dataset.TypeBudget:
		return Budget()
	case dataset.TypeParticipation:
		return Participation()
	case dataset.TypeTransport:
		return Transport()
	default:
		return []dataset.Record{}
	}
}

// Budget returns the Paris 2024 budget allocation by sector.
func Budget() []dataset.Record {
	return []dataset.Record{
		{"secteur": "Éducation", "montant": 1240000000.0, "pourcentage": 31.2, "annee": 2024, "description": "Enseignement primaire et secondaire"},
		{"secteur": "Transport", "montant": 890000000.0, "pourcentage": 22.4, "annee": 2024, "description": "Métro, RER, bus et mobilités douces"},
		{"secteur": "Logement", "montant": 650000000.0, "pourcentage": 16.4, "annee": 2024, "description": "Logement social et rénovation urbaine"},
		{"secteur": "Santé", "montant": 520000000.0, "pourcentage": 13.1, "annee": 2024, "description": "Hôpitaux publics et centres de santé"},
		{"secteur": "Environnement", "montant": 420000000.0, "pourcentage": 10.6, "annee": 2024, "description": "Espaces verts et transition énergétique"},
		{"secteur": "Culture et Sports", "montant": 250000000.0, "pourcentage": 6.3, "annee": 2024, "description": "Équipements culturels et sportifs"},
	}
}

// Participation returns monthly civic participation figures by district.
func Participation() []dataset.Record {
	return []dataset.Record{
		{"arrondissement": "75011", "nom": "11e arrondissement", "participants": 634, "projets_actifs": 12, "commentaires": 289, "satisfaction": 4.2, "mois": "2024-01"},
		{"arrondissement": "75015", "nom": "15e arrondissement", "participants": 567, "projets_actifs": 8, "commentaires": 234, "satisfaction": 4.0, "mois": "2024-01"},
		{"arrondissement": "75010", "nom": "10e arrondissement", "participants": 521, "projets_actifs": 10, "commentaires": 198, "satisfaction": 4.1, "mois": "2024-01"},
		{"arrondissement": "75018", "nom": "18e arrondissement", "participants": 512, "projets_actifs": 9, "commentaires": 167, "satisfaction": 3.9, "mois": "2024-01"},
		{"arrondissement": "75012", "nom": "12e arrondissement", "participants": 478, "projets_actifs": 7, "commentaires": 145, "satisfaction": 4.0, "mois": "2024-01"},
	}
}

// Transport returns national public transport usage statistics.
func Transport() []dataset.Record {
	return []dataset.Record{
		{"reseau": "RATP", "region": "Île-de-France", "lignes": 328, "arrets": 12500, "voyageurs_annuels": 3200000000.0, "annee": 2024},
		{"reseau": "TCL", "region": "Auvergne-Rhône-Alpes", "lignes": 134, "arrets": 4300, "voyageurs_annuels": 480000000.0, "annee": 2024},
		{"reseau": "RTM", "region": "Provence-Alpes-Côte d'Azur", "lignes": 120, "arrets": 3100, "voyageurs_annuels": 190000000.0, "annee": 2024},
		{"reseau": "Tisséo", "region": "Occitanie", "lignes": 95, "arrets": 2900, "voyageurs_annuels": 150000000.0, "annee": 2024},
	}
}
