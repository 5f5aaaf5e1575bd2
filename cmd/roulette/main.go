// Command roulette is the administrative CLI of the coffee roulette:
// users, rounds, votes, penalty settings, match generation and finalization.
package main

func main() {
	Execute()
}
