// Command callisto runs the feature-flag route guard service.
package main

func main() {
	Execute()
}
