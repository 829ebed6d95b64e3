/*
Package keystore holds the verification keys of an identity provider.

A KeyStore is an immutable kid-to-key map built from a JSON Web Key Set:

	set, err := keystore.Fetch(ctx, http.DefaultClient, "https://issuer.example/certs")
	if err != nil {
	    // Handle error
	}

	ks, err := keystore.New(set)
	if err != nil {
	    // Handle error
	}

	key, ok := ks.Find("k1")

The store is populated once and never refreshed. Rotating keys means
building a new store and a new engine around it.
*/
package keystore
