// README: Assigns the driver or passenger role claim to a Firebase user.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"jeepney/internal/infra"
)

func main() {
	email := flag.String("email", "", "email of the Firebase user")
	role := flag.String("role", roleDriver, "role to assign: driver or passenger")
	credentials := flag.String("credentials", os.Getenv("JEEP_FIREBASE_CREDENTIALS_FILE"), "service-account JSON path")
	projectID := flag.String("project", os.Getenv("JEEP_FIREBASE_PROJECT_ID"), "Firebase project id")
	flag.Parse()

	if *email == "" {
		log.Fatal("-email is required")
	}
	if err := validateRole(*role); err != nil {
		log.Fatal(err)
	}
	if *credentials == "" {
		log.Fatal("-credentials or JEEP_FIREBASE_CREDENTIALS_FILE is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app, err := infra.NewFirebaseApp(ctx, *projectID, "", *credentials)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		log.Fatalf("firebase auth: %v", err)
	}

	user, err := client.GetUserByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("lookup %s: %v", *email, err)
	}
	claims := withRole(user.CustomClaims, *role)
	if err := client.SetCustomUserClaims(ctx, user.UID, claims); err != nil {
		log.Fatalf("set claims for %s: %v", user.UID, err)
	}
	fmt.Printf("Set %s role for %s (uid %s)\n", *role, user.Email, user.UID)
}
