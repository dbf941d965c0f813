package customers

import (
	"fmt"
	"math/rand"
	"strings"
)

// Candidate is a generated customer record that has not been persisted yet.
type Candidate struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

var (
	firstNames = []string{
		"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael",
		"Linda", "William", "Elizabeth", "David", "Barbara", "Richard", "Susan",
		"Joseph", "Jessica", "Thomas", "Sarah", "Charles", "Karen", "Daniel",
		"Nancy", "Matthew", "Lisa", "Anthony", "Betty", "Mark", "Margaret",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
		"Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez",
		"Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin",
		"Lee", "Perez", "Thompson", "White", "Harris", "Sanchez", "Clark",
	}
	emailDomains = []string{
		"example.com", "mail.com", "inbox.net", "postbox.org", "acme.io",
	}
	streets = []string{
		"Main St", "Oak Ave", "Maple Dr", "Cedar Ln", "Elm St", "Pine Rd",
		"Washington Blvd", "Lake View Dr", "Hillcrest Ave", "River Rd",
	}
	cities = []string{
		"Springfield", "Riverside", "Franklin", "Greenville", "Clinton",
		"Fairview", "Madison", "Georgetown", "Arlington", "Salem",
	}
	states = []string{
		"CA", "TX", "NY", "FL", "IL", "PA", "OH", "GA", "NC", "WA",
	}
)

// GenerateCustomers produces count candidate records from the fixed word lists.
// Emails are unique within the batch: a collision gets the record's batch index
// appended before the @. Nothing is checked against persisted rows, duplicates
// there surface as per-record failures at insert time.
func GenerateCustomers(count int) []Candidate {
	candidates := make([]Candidate, 0, count)
	seenEmails := make(map[string]bool, count)

	for i := 0; i < count; i++ {
		first := firstNames[rand.Intn(len(firstNames))]
		last := lastNames[rand.Intn(len(lastNames))]
		domain := emailDomains[rand.Intn(len(emailDomains))]

		email := strings.ToLower(first + "." + last + "@" + domain)
		if seenEmails[email] {
			email = strings.ToLower(fmt.Sprintf("%s.%s%d@%s", first, last, i, domain))
		}
		seenEmails[email] = true

		candidates = append(candidates, Candidate{
			Name:    first + " " + last,
			Email:   email,
			Phone:   generatePhone(),
			Address: generateAddress(),
		})
	}

	return candidates
}

func generatePhone() string {
	area := 200 + rand.Intn(800)
	prefix := 200 + rand.Intn(800)
	line := 1000 + rand.Intn(9000)
	return fmt.Sprintf("+1-%d-%d-%d", area, prefix, line)
}

func generateAddress() string {
	number := 1 + rand.Intn(9999)
	street := streets[rand.Intn(len(streets))]
	city := cities[rand.Intn(len(cities))]
	state := states[rand.Intn(len(states))]
	postal := 10000 + rand.Intn(90000)
	return fmt.Sprintf("%d %s, %s, %s %d, USA", number, street, city, state, postal)
}
