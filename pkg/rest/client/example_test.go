package client_test

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"

	"github.com/gorilla/mux"
	"github.com/mailtm/mailtm/pkg/rest/client"
)

// Example demonstrates basic usage of the REST client.
func Example() {
	// Setup a fake mail server for this example.
	baseURL, teardown := exampleSetup()
	defer teardown()

	err := func() error {
		ctx := context.Background()

		// Begin by creating a new client using the base URL of the API, i.e.
		// `https://api.mail.tm`.
		restClient, err := client.New(baseURL)
		if err != nil {
			return err
		}

		// Log in to obtain a bearer token for the account.
		account, err := restClient.Login(ctx, "user1@example.org", "secret")
		if err != nil {
			return err
		}
		fmt.Printf("Logged in: %v\n", account.Address)

		// Walk every message intro in the inbox, page by page.
		inbox := account.Messages()
		it := inbox.MessageIntros()
		for it.Next(ctx) {
			intro := it.Item()
			fmt.Printf("ID: %v, Subject: %v\n", intro.ID, intro.Subject)
		}
		if err := it.Err(); err != nil {
			return err
		}

		// Get the full content of the first message.
		message, err := inbox.GetMessage(ctx, "60bfa3eb")
		if err != nil {
			return err
		}
		fmt.Printf("\nFrom: %v\n", message.From)
		fmt.Printf("Text body:\n%v\n", message.Text)

		// A message that does not exist is nil, not an error.
		missing, err := inbox.GetMessage(ctx, "nonexistent")
		if err != nil {
			return err
		}
		fmt.Printf("\nMissing: %v\n", missing == nil)

		return nil
	}()

	if err != nil {
		log.Print(err)
	}

	// Output:
	// Logged in: user1@example.org
	// ID: 60bfa3eb, Subject: First subject
	// ID: 60bfa3ec, Subject: Second subject
	//
	// From: Admin <admin@example.org>
	// Text body:
	// This is the plain text body
	//
	// Missing: true
}

const exampleIntros = `{
	"hydra:member": [
		{
			"id": "60bfa3eb",
			"accountId": "/accounts/acc1",
			"msgid": "<first@example.org>",
			"from": {"address": "admin@example.org", "name": "Admin"},
			"to": [{"address": "user1@example.org", "name": ""}],
			"subject": "First subject",
			"intro": "This is the plain text body",
			"seen": false,
			"isDeleted": false,
			"hasAttachments": false,
			"size": 1024,
			"downloadUrl": "/messages/60bfa3eb/download",
			"createdAt": "2021-06-08T17:01:00+00:00",
			"updatedAt": "2021-06-08T17:01:00+00:00"
		},
		{
			"id": "60bfa3ec",
			"accountId": "/accounts/acc1",
			"msgid": "<second@example.org>",
			"from": {"address": "admin@example.org", "name": "Admin"},
			"to": [{"address": "user1@example.org", "name": ""}],
			"subject": "Second subject",
			"intro": "Another body",
			"seen": true,
			"isDeleted": false,
			"hasAttachments": false,
			"size": 2048,
			"downloadUrl": "/messages/60bfa3ec/download",
			"createdAt": "2021-06-08T17:02:00+00:00",
			"updatedAt": "2021-06-08T17:02:00+00:00"
		}
	],
	"hydra:totalItems": 2
}`

const exampleMessage = `{
	"id": "60bfa3eb",
	"accountId": "/accounts/acc1",
	"msgid": "<first@example.org>",
	"from": {"address": "admin@example.org", "name": "Admin"},
	"to": [{"address": "user1@example.org", "name": ""}],
	"cc": [],
	"bcc": [],
	"subject": "First subject",
	"intro": "This is the plain text body",
	"seen": false,
	"flagged": false,
	"isDeleted": false,
	"verifications": [],
	"retention": true,
	"retentionDate": "2021-06-15T17:01:00+00:00",
	"text": "This is the plain text body",
	"html": [],
	"hasAttachments": false,
	"attachments": [],
	"size": 1024,
	"downloadUrl": "/messages/60bfa3eb/download",
	"createdAt": "2021-06-08T17:01:00+00:00",
	"updatedAt": "2021-06-08T17:01:00+00:00"
}`

// exampleSetup creates a fake mail server to power Example() below.
func exampleSetup() (baseURL string, teardown func()) {
	router := mux.NewRouter()
	server := httptest.NewServer(router)

	// Handle token request.
	router.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "acc1", "token": "example-token"}`))
	}).Methods("POST")

	// Handle account data request.
	router.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "acc1",
			"address": "user1@example.org",
			"quota": 40000000,
			"used": 3072,
			"isDisabled": false,
			"isDeleted": false,
			"createdAt": "2021-06-08T17:00:00+00:00",
			"updatedAt": "2021-06-08T17:00:00+00:00"
		}`))
	})

	// Handle message intros; a single page holds the whole inbox.
	router.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(exampleIntros))
	})

	// Handle GetMessage request.
	router.HandleFunc("/messages/60bfa3eb", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(exampleMessage))
	})

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"hydra:description": "Not Found"}`))
	})

	return server.URL, func() {
		server.Close()
	}
}
