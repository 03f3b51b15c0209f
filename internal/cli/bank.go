package cli

import (
	"fmt"

	"geoquiz/internal/domain"
)

// DefaultBankID is the bank used when no other source is configured.
const DefaultBankID = "world-capitals"

var optionLetters = [4]string{"A", "B", "C", "D"}

type bankRow struct {
	country string
	capital string
	region  string
	correct int      // index into choices
	choices [4]string
}

// sampleBank provides a built-in geography bank; swap the loader with the
// Postgres-backed one in production. East Asia rows carry the region tag the
// selector uses for its quota.
func sampleBank() map[string]domain.Bank {
	rows := []bankRow{
		{"China", "Beijing", "EastAsia", 1, [4]string{"Shanghai", "Beijing", "Guangzhou", "Nanjing"}},
		{"Japan", "Tokyo", "EastAsia", 2, [4]string{"Osaka", "Kyoto", "Tokyo", "Sapporo"}},
		{"South Korea", "Seoul", "EastAsia", 0, [4]string{"Seoul", "Busan", "Incheon", "Daegu"}},
		{"North Korea", "Pyongyang", "EastAsia", 3, [4]string{"Kaesong", "Hamhung", "Wonsan", "Pyongyang"}},
		{"Mongolia", "Ulaanbaatar", "EastAsia", 1, [4]string{"Darkhan", "Ulaanbaatar", "Erdenet", "Hovd"}},
		{"Vietnam", "Hanoi", "EastAsia", 0, [4]string{"Hanoi", "Ho Chi Minh City", "Da Nang", "Hue"}},
		{"Thailand", "Bangkok", "EastAsia", 2, [4]string{"Chiang Mai", "Phuket", "Bangkok", "Pattaya"}},
		{"Philippines", "Manila", "EastAsia", 1, [4]string{"Cebu", "Manila", "Davao", "Quezon"}},
		{"Indonesia", "Jakarta", "EastAsia", 0, [4]string{"Jakarta", "Surabaya", "Bandung", "Bali"}},
		{"Malaysia", "Kuala Lumpur", "EastAsia", 3, [4]string{"Penang", "Johor Bahru", "Malacca", "Kuala Lumpur"}},
		{"Singapore", "Singapore", "EastAsia", 0, [4]string{"Singapore", "Jurong", "Changi", "Sentosa"}},
		{"Laos", "Vientiane", "EastAsia", 2, [4]string{"Luang Prabang", "Pakse", "Vientiane", "Savannakhet"}},
		{"France", "Paris", "", 1, [4]string{"Lyon", "Paris", "Marseille", "Nice"}},
		{"Germany", "Berlin", "", 0, [4]string{"Berlin", "Munich", "Hamburg", "Frankfurt"}},
		{"Italy", "Rome", "", 2, [4]string{"Milan", "Naples", "Rome", "Turin"}},
		{"Spain", "Madrid", "", 1, [4]string{"Barcelona", "Madrid", "Seville", "Valencia"}},
		{"United Kingdom", "London", "", 3, [4]string{"Manchester", "Birmingham", "Edinburgh", "London"}},
		{"United States", "Washington, D.C.", "", 0, [4]string{"Washington, D.C.", "New York", "Los Angeles", "Chicago"}},
		{"Canada", "Ottawa", "", 2, [4]string{"Toronto", "Vancouver", "Ottawa", "Montreal"}},
		{"Brazil", "Brasilia", "", 1, [4]string{"Rio de Janeiro", "Brasilia", "Sao Paulo", "Salvador"}},
		{"Australia", "Canberra", "", 3, [4]string{"Sydney", "Melbourne", "Perth", "Canberra"}},
		{"Egypt", "Cairo", "", 0, [4]string{"Cairo", "Alexandria", "Giza", "Luxor"}},
		{"Russia", "Moscow", "", 1, [4]string{"Saint Petersburg", "Moscow", "Kazan", "Novosibirsk"}},
		{"India", "New Delhi", "", 2, [4]string{"Mumbai", "Kolkata", "New Delhi", "Chennai"}},
		{"Argentina", "Buenos Aires", "", 0, [4]string{"Buenos Aires", "Cordoba", "Rosario", "Mendoza"}},
		{"Kenya", "Nairobi", "", 3, [4]string{"Mombasa", "Kisumu", "Nakuru", "Nairobi"}},
	}

	questions := make([]domain.Question, 0, len(rows))
	for i, row := range rows {
		questions = append(questions, buildQuestion(fmt.Sprintf("q%02d", i+1), row))
	}
	return map[string]domain.Bank{
		DefaultBankID: {ID: DefaultBankID, Questions: questions},
	}
}

func buildQuestion(id string, row bankRow) domain.Question {
	options := make([]domain.Option, 0, len(row.choices))
	for i, text := range row.choices {
		options = append(options, domain.Option{
			ID:      optionLetters[i],
			Label:   optionLetters[i],
			Text:    text,
			Correct: i == row.correct,
		})
	}
	return domain.Question{
		ID:         id,
		Country:    row.country,
		Capital:    row.capital,
		FlagURL:    flagURL(row.country),
		Prompt:     fmt.Sprintf("What is the capital of %s?", row.country),
		AskCapital: true,
		Options:    options,
		Region:     row.region,
	}
}

func flagURL(country string) string {
	return "/assets/flags/" + slugify(country) + ".svg"
}

func slugify(country string) string {
	out := make([]rune, 0, len(country))
	for _, r := range country {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r >= 'a' && r <= 'z':
			out = append(out, r)
		case r == ' ':
			out = append(out, '-')
		}
	}
	return string(out)
}
