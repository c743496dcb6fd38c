package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"gitlab.com/dirk.krummacker/contacts-api/pkg/model"
)

// baseURL is the contacts endpoint of the service under test.
var baseURL string

// emailCounter makes the email address of every created contact unique.
var emailCounter int

// Usage example on the command line:
// > go run ./cmd/client -url=http://localhost:3000/contacts
func main() {
	flag.StringVar(&baseURL, "url", "http://localhost:3000/contacts", "the contacts endpoint")
	flag.Parse()

	fmt.Println()
	fmt.Println("  Elements      POST       PUT       GET    DELETE ")
	fmt.Println("---------------------------------------------------")
	sizes := []int{1000, 5000, 10000, 50000, 100000}
	for _, loops := range sizes {
		fmt.Printf("%10d", loops)
		var ids []string
		{
			// POST requests
			var duration int64
			for i := 0; i < loops; i++ {
				id, d := sendPostRequest()
				ids = append(ids, id)
				duration += d
			}
			fmt.Printf("%10d", duration/int64(loops*1000))
		}
		{
			// PUT requests
			f := func(id string) int64 {
				return sendPutGetDeleteRequest(id, http.MethodPut, bytes.NewReader(encode(model.ContactRequest{
					FavoriteColor: "Purple",
				})))
			}
			callInLoop(ids, f)
		}
		{
			// GET requests
			f := func(id string) int64 {
				return sendPutGetDeleteRequest(id, http.MethodGet, nil)
			}
			callInLoop(ids, f)
		}
		{
			// DELETE requests
			f := func(id string) int64 {
				return sendPutGetDeleteRequest(id, http.MethodDelete, nil)
			}
			callInLoop(ids, f)
		}
		fmt.Println()
	}
}

func callInLoop(ids []string, f func(id string) int64) {
	shuffled := make([]string, len(ids))
	copy(shuffled, ids)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	var duration int64
	for _, id := range shuffled {
		d := f(id)
		duration += d
	}
	fmt.Printf("%10d", duration/int64(len(ids)*1000))
}

func encode(request model.ContactRequest) []byte {
	body, err := json.Marshal(request)
	if err != nil {
		fmt.Println("could not marshal JSON", err)
		panic(err)
	}
	return body
}

func sendPostRequest() (string, int64) {
	emailCounter++
	body := encode(model.ContactRequest{
		FirstName:     "Marcus",
		LastName:      "Antonius",
		Email:         fmt.Sprintf("marcus.antonius.%d.%d@example.com", time.Now().Unix(), emailCounter),
		FavoriteColor: "Red",
		Birthday:      "1983-01-14",
	})
	resBody, duration := sendRequest(http.MethodPost, baseURL, bytes.NewReader(body))
	var contact model.Contact
	err := json.Unmarshal(resBody, &contact)
	if err != nil || contact.Id == "" {
		fmt.Println("could not create contact", string(resBody), err)
		panic(fmt.Sprintf("unexpected response: %s", resBody))
	}
	return contact.Id, duration
}

func sendPutGetDeleteRequest(id string, method string, bodyReader io.Reader) int64 {
	requestURL := fmt.Sprintf("%s/%s", baseURL, id)
	_, duration := sendRequest(method, requestURL, bodyReader)
	return duration
}

func sendRequest(method string, requestURL string, bodyReader io.Reader) ([]byte, int64) {
	req, err := http.NewRequest(method, requestURL, bodyReader)
	if err != nil {
		fmt.Println("could not create request", err)
		panic(err)
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	before := time.Now().UnixNano()
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("error making http request", err)
		panic(err)
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		fmt.Println("could not read response body", err)
		panic(err)
	}
	after := time.Now().UnixNano()
	return resBody, after - before
}
